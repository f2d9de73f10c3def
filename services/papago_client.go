// services/papago_client.go
package services

import (
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"meepleon-backend/utils"
)

const (
	papagoBaseURL = "https://naveropenapi.apigw.ntruss.com/nmt/v1/translation"

	// hard per-request ceiling imposed by the Papago NMT API
	papagoMaxChars = 5000

	// pause between chunked requests so long texts don't trip the rate limiter
	papagoChunkDelay = 500 * time.Millisecond
)

var sentencePattern = regexp.MustCompile(`[^.!?]+[.!?]+`)

type papagoResponse struct {
	Message struct {
		Result struct {
			TranslatedText string `json:"translatedText"`
			SrcLangType    string `json:"srcLangType"`
		} `json:"result"`
	} `json:"message"`
}

// TranslateResult is one translation outcome. CharacterCount is the number
// of source characters sent, the unit the usage ledger bills in.
type TranslateResult struct {
	TranslatedText     string `json:"translatedText"`
	DetectedSourceLang string `json:"detectedSourceLang"`
	CharacterCount     int    `json:"characterCount"`
}

// PapagoClient translates English text to Korean through the NCP Papago NMT
// API. Credentials come from PAPAGO_CLIENT_ID / PAPAGO_CLIENT_SECRET.
type PapagoClient struct {
	clientID     string
	clientSecret string
	client       *resty.Client
	delay        time.Duration
}

func NewPapagoClient() *PapagoClient {
	return &PapagoClient{
		clientID:     os.Getenv("PAPAGO_CLIENT_ID"),
		clientSecret: os.Getenv("PAPAGO_CLIENT_SECRET"),
		client:       resty.New().SetBaseURL(papagoBaseURL).SetTimeout(15 * time.Second),
		delay:        papagoChunkDelay,
	}
}

// Available reports whether API credentials are configured.
func (p *PapagoClient) Available() bool {
	return p.clientID != "" && p.clientSecret != ""
}

// Translate translates a single text of at most 5000 characters.
// Empty input returns a zero result without an API call.
func (p *PapagoClient) Translate(text string) (*TranslateResult, error) {
	if strings.TrimSpace(text) == "" {
		return &TranslateResult{}, nil
	}
	if len([]rune(text)) > papagoMaxChars {
		return nil, utils.NewPayloadTooLarge("text exceeds the 5000 character translation limit")
	}

	var result papagoResponse
	resp, err := p.client.R().
		SetHeader("X-NCP-APIGW-API-KEY-ID", p.clientID).
		SetHeader("X-NCP-APIGW-API-KEY", p.clientSecret).
		SetFormData(map[string]string{
			"source": "en",
			"target": "ko",
			"text":   text,
		}).
		SetResult(&result).
		Post("")
	if err != nil {
		return nil, utils.NewUpstreamError("Papago request failed: " + err.Error())
	}

	switch resp.StatusCode() {
	case 200:
		return &TranslateResult{
			TranslatedText:     result.Message.Result.TranslatedText,
			DetectedSourceLang: result.Message.Result.SrcLangType,
			CharacterCount:     len([]rune(text)),
		}, nil
	case 429:
		return nil, utils.NewRateLimited("Papago rate limit exceeded")
	case 400:
		return nil, utils.NewInvalidRequest("Papago rejected the request: " + resp.String())
	default:
		return nil, utils.NewUpstreamError("Papago returned status " + resp.Status())
	}
}

// TranslateLong translates text of any length by splitting it into chunks
// under the per-request ceiling, translating each, and rejoining with blank
// lines. Paragraph boundaries are preserved where they fit.
func (p *PapagoClient) TranslateLong(text string) (*TranslateResult, error) {
	if strings.TrimSpace(text) == "" {
		return &TranslateResult{}, nil
	}
	if len([]rune(text)) <= papagoMaxChars {
		return p.Translate(text)
	}

	chunks := splitChunks(text, papagoMaxChars)
	combined := &TranslateResult{}
	translated := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		out, err := p.Translate(chunk)
		if err != nil {
			return nil, err
		}
		translated = append(translated, out.TranslatedText)
		combined.CharacterCount += out.CharacterCount
		if combined.DetectedSourceLang == "" {
			combined.DetectedSourceLang = out.DetectedSourceLang
		}
		if i < len(chunks)-1 {
			time.Sleep(p.delay)
		}
	}
	combined.TranslatedText = strings.Join(translated, "\n\n")
	return combined, nil
}

// splitChunks packs paragraphs greedily into chunks under limit runes.
// A single paragraph over the limit is split on sentence boundaries; no part
// of the input is ever dropped.
func splitChunks(text string, limit int) []string {
	paragraphs := strings.Split(text, "\n\n")
	var chunks []string
	var current strings.Builder
	currentLen := 0

	flush := func() {
		if currentLen > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
			currentLen = 0
		}
	}

	appendPiece := func(piece, joiner string) {
		pieceLen := len([]rune(piece))
		sep := joiner
		if currentLen == 0 {
			sep = ""
		}
		if currentLen+len([]rune(sep))+pieceLen > limit {
			flush()
			sep = ""
		}
		current.WriteString(sep)
		current.WriteString(piece)
		currentLen += len([]rune(sep)) + pieceLen
	}

	// appendText hard-splits pieces that are themselves over the limit
	appendText := func(piece string) {
		runes := []rune(piece)
		if len(runes) <= limit {
			appendPiece(piece, " ")
			return
		}
		for start := 0; start < len(runes); start += limit {
			end := start + limit
			if end > len(runes) {
				end = len(runes)
			}
			appendPiece(string(runes[start:end]), " ")
		}
	}

	for _, para := range paragraphs {
		if len([]rune(para)) <= limit {
			appendPiece(para, "\n\n")
			continue
		}
		// oversized paragraph: fall back to sentence boundaries, keeping
		// whatever trails the last terminal punctuation
		locs := sentencePattern.FindAllStringIndex(para, -1)
		tailStart := 0
		for _, loc := range locs {
			appendText(strings.TrimSpace(para[loc[0]:loc[1]]))
			tailStart = loc[1]
		}
		if tail := strings.TrimSpace(para[tailStart:]); tail != "" {
			appendText(tail)
		}
	}
	flush()
	return chunks
}
