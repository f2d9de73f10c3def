// services/bgg_client.go
package services

import (
	"encoding/xml"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"meepleon-backend/models"
	"meepleon-backend/utils"
)

const (
	bggBaseURL   = "https://boardgamegeek.com/xmlapi2"
	bggUserAgent = "MeepleOn/1.0 (+https://meepleon.com; contact@meepleon.com)"

	// BGG throttles aggressively; one request per second keeps us off the ban list
	bggRequestDelay = 1 * time.Second

	// rank ids inside the <ranks> block: "1" is the overall boardgame rank,
	// "5497" the strategygames family rank
	bggOverallRankID  = "1"
	bggStrategyRankID = "5497"
)

// BggClient talks to the BoardGameGeek XML API2 and normalizes its
// idiosyncratic payloads into models.BggGameData.
type BggClient struct {
	baseURL    string
	apiToken   string
	httpClient *http.Client
	delay      time.Duration
}

func NewBggClient() *BggClient {
	return &BggClient{
		baseURL:  bggBaseURL,
		apiToken: os.Getenv("BGG_API_TOKEN"), // optional
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		delay: bggRequestDelay,
	}
}

// ===== XML wire types =====

type bggValueAttr struct {
	Value string `xml:"value,attr"`
}

type bggName struct {
	Type  string `xml:"type,attr"`
	Value string `xml:"value,attr"`
}

type bggPollResult struct {
	Value    string `xml:"value,attr"`
	NumVotes int    `xml:"numvotes,attr"`
}

type bggPollResults struct {
	NumPlayers string          `xml:"numplayers,attr"`
	Results    []bggPollResult `xml:"result"`
}

type bggPoll struct {
	Name    string           `xml:"name,attr"`
	Results []bggPollResults `xml:"results"`
}

type bggLink struct {
	Type  string `xml:"type,attr"`
	ID    int    `xml:"id,attr"`
	Value string `xml:"value,attr"`
}

type bggRank struct {
	ID    string `xml:"id,attr"`
	Value string `xml:"value,attr"` // numeric, or "Not Ranked"
}

type bggRatings struct {
	Average       *bggValueAttr `xml:"average"`
	AverageWeight *bggValueAttr `xml:"averageweight"`
	UsersRated    *bggValueAttr `xml:"usersrated"`
	Owned         *bggValueAttr `xml:"owned"`
	Trading       *bggValueAttr `xml:"trading"`
	Wanting       *bggValueAttr `xml:"wanting"`
	Wishing       *bggValueAttr `xml:"wishing"`
	NumComments   *bggValueAttr `xml:"numcomments"`
	NumWeights    *bggValueAttr `xml:"numweights"`
	Ranks         struct {
		Ranks []bggRank `xml:"rank"`
	} `xml:"ranks"`
}

type bggStatistics struct {
	Ratings bggRatings `xml:"ratings"`
}

type bggItem struct {
	ID            int            `xml:"id,attr"`
	Names         []bggName      `xml:"name"`
	YearPublished *bggValueAttr  `xml:"yearpublished"`
	MinPlayers    *bggValueAttr  `xml:"minplayers"`
	MaxPlayers    *bggValueAttr  `xml:"maxplayers"`
	MinPlaytime   *bggValueAttr  `xml:"minplaytime"`
	MaxPlaytime   *bggValueAttr  `xml:"maxplaytime"`
	Description   string         `xml:"description"`
	Image         string         `xml:"image"`
	Thumbnail     string         `xml:"thumbnail"`
	Polls         []bggPoll      `xml:"poll"`
	Links         []bggLink      `xml:"link"`
	Statistics    *bggStatistics `xml:"statistics"`
}

type bggItems struct {
	Items []bggItem `xml:"item"`
}

// ===== parsing helpers =====

// parseLeadingInt reads the leading digit run of a value like "4", "4+" or
// "21 and up". BGG mixes plain numbers with these suffixed forms.
func parseLeadingInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

// intAttr returns the attr's numeric value, nil for missing or non-numeric.
// Absent must stay absent — never zero.
func intAttr(v *bggValueAttr) *int {
	if v == nil {
		return nil
	}
	n, ok := parseLeadingInt(v.Value)
	if !ok {
		return nil
	}
	return &n
}

func floatAttr(v *bggValueAttr) *float64 {
	if v == nil {
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v.Value), 64)
	if err != nil {
		return nil
	}
	return &f
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// linksOfType partitions the generic link collection by its type
// discriminator. An empty result stays nil (unknown vs known-empty).
func linksOfType(links []bggLink, linkType string) []models.LinkRef {
	var refs []models.LinkRef
	for _, l := range links {
		if l.Type == linkType {
			refs = append(refs, models.LinkRef{ID: l.ID, Name: l.Value})
		}
	}
	return refs
}

// bestPlayerCountFromPoll picks the player count with the most "Best" votes.
// Ties keep the first-seen maximum.
func bestPlayerCountFromPoll(polls []bggPoll) *int {
	for _, poll := range polls {
		if poll.Name != "suggested_numplayers" {
			continue
		}
		var best *int
		maxVotes := 0
		for _, bucket := range poll.Results {
			numPlayers, ok := parseLeadingInt(bucket.NumPlayers)
			if !ok {
				continue
			}
			for _, vote := range bucket.Results {
				if vote.Value == "Best" && vote.NumVotes > maxVotes {
					maxVotes = vote.NumVotes
					n := numPlayers
					best = &n
				}
			}
		}
		return best
	}
	return nil
}

// minAgeFromPoll picks the age with the most votes in the player-age poll.
func minAgeFromPoll(polls []bggPoll) *int {
	for _, poll := range polls {
		if poll.Name != "suggested_playerage" {
			continue
		}
		var minAge *int
		maxVotes := 0
		for _, bucket := range poll.Results {
			for _, vote := range bucket.Results {
				age, ok := parseLeadingInt(vote.Value)
				if !ok {
					continue
				}
				if vote.NumVotes > maxVotes {
					maxVotes = vote.NumVotes
					a := age
					minAge = &a
				}
			}
		}
		return minAge
	}
	return nil
}

func rankByID(ranks []bggRank, id string) *int {
	for _, rank := range ranks {
		if rank.ID == id {
			n, ok := parseLeadingInt(rank.Value)
			if !ok {
				return nil // "Not Ranked" and friends
			}
			return &n
		}
	}
	return nil
}

// ===== API calls =====

func (c *BggClient) get(path string) ([]byte, error) {
	req, err := http.NewRequest("GET", c.baseURL+path, nil)
	if err != nil {
		return nil, utils.NewUpstreamError(fmt.Sprintf("failed to build BGG request: %v", err))
	}
	req.Header.Set("User-Agent", bggUserAgent)
	req.Header.Set("Accept", "application/xml")
	if c.apiToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, utils.NewUpstreamError(fmt.Sprintf("BGG request failed: %v", err))
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, utils.NewUpstreamError(fmt.Sprintf("BGG returned status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, utils.NewUpstreamError(fmt.Sprintf("failed to read BGG response: %v", err))
	}
	return body, nil
}

// FetchGame fetches one game by BGG id and normalizes it. Returns (nil, nil)
// when BGG reports no matching item.
func (c *BggClient) FetchGame(bggID int) (*models.BggGameData, error) {
	body, err := c.get(fmt.Sprintf("/thing?id=%d&type=boardgame&stats=1", bggID))
	if err != nil {
		return nil, err
	}

	var parsed bggItems
	if err := xml.Unmarshal(body, &parsed); err != nil {
		return nil, utils.NewUpstreamError(fmt.Sprintf("malformed BGG response: %v", err))
	}
	if len(parsed.Items) == 0 {
		return nil, nil
	}
	item := parsed.Items[0]

	// primary name, falling back to whatever single name exists
	nameEn := "Unknown"
	var alternateNames []string
	for _, n := range item.Names {
		switch n.Type {
		case "primary":
			nameEn = n.Value
		case "alternate":
			if n.Value != "" {
				alternateNames = append(alternateNames, n.Value)
			}
		}
	}
	if nameEn == "Unknown" && len(item.Names) > 0 && item.Names[0].Value != "" {
		nameEn = item.Names[0].Value
	}

	data := &models.BggGameData{
		BggID:          bggID,
		NameEn:         nameEn,
		AlternateNames: alternateNames,
		YearPublished:  intAttr(item.YearPublished),
		MinPlayers:     intAttr(item.MinPlayers),
		MaxPlayers:     intAttr(item.MaxPlayers),
		MinPlaytime:    intAttr(item.MinPlaytime),
		MaxPlaytime:    intAttr(item.MaxPlaytime),
		MinAge:         minAgeFromPoll(item.Polls),
		Description:    optString(item.Description),
		ImageURL:       optString(item.Image),
		ThumbnailURL:   optString(item.Thumbnail),

		Categories: linksOfType(item.Links, "boardgamecategory"),
		Mechanisms: linksOfType(item.Links, "boardgamemechanic"),
		Designers:  linksOfType(item.Links, "boardgamedesigner"),
		Artists:    linksOfType(item.Links, "boardgameartist"),
		Publishers: linksOfType(item.Links, "boardgamepublisher"),
	}

	if item.Statistics != nil {
		ratings := item.Statistics.Ratings
		data.BggRating = floatAttr(ratings.Average)
		data.AverageWeight = floatAttr(ratings.AverageWeight)
		data.UsersRated = intAttr(ratings.UsersRated)
		data.Owned = intAttr(ratings.Owned)
		data.Trading = intAttr(ratings.Trading)
		data.Wanting = intAttr(ratings.Wanting)
		data.Wishing = intAttr(ratings.Wishing)
		data.NumComments = intAttr(ratings.NumComments)
		data.NumWeights = intAttr(ratings.NumWeights)
		data.BggRankOverall = rankByID(ratings.Ranks.Ranks, bggOverallRankID)
		data.BggRankStrategy = rankByID(ratings.Ranks.Ranks, bggStrategyRankID)
	}

	// the community poll backfills unknown player counts, but a value BGG
	// actually reported always wins
	if best := bestPlayerCountFromPoll(item.Polls); best != nil {
		data.BestPlayerCount = best
		if data.MinPlayers == nil {
			data.MinPlayers = best
		}
		if data.MaxPlayers == nil {
			data.MaxPlayers = best
		}
	}

	return data, nil
}

// FetchGames fetches each id sequentially with the mandatory inter-request
// delay. A failed id is logged and skipped — the batch never aborts.
func (c *BggClient) FetchGames(bggIDs []int) []models.BggGameData {
	games := make([]models.BggGameData, 0, len(bggIDs))

	for i, bggID := range bggIDs {
		game, err := c.FetchGame(bggID)
		if err != nil {
			log.Printf("❌ [BGG] fetch failed (bggId: %d): %v", bggID, err)
		} else if game != nil {
			games = append(games, *game)
		}
		if i < len(bggIDs)-1 {
			time.Sleep(c.delay)
		}
	}

	return games
}

type bggHotItem struct {
	ID int `xml:"id,attr"`
}

type bggHotItems struct {
	Items []bggHotItem `xml:"item"`
}

// FetchHotGames returns the current trending BGG ids. Any failure yields an
// empty list, never an error.
func (c *BggClient) FetchHotGames() []int {
	body, err := c.get("/hot?type=boardgame")
	if err != nil {
		log.Printf("❌ [BGG] hot list fetch failed: %v", err)
		return nil
	}

	var parsed bggHotItems
	if err := xml.Unmarshal(body, &parsed); err != nil {
		log.Printf("❌ [BGG] hot list malformed: %v", err)
		return nil
	}

	ids := make([]int, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item.ID > 0 {
			ids = append(ids, item.ID)
		}
	}
	return ids
}
