package dataforseo

import "encoding/json"

// Provider status code for a successful call. Anything else is an
// upstream error carrying a status message.
const statusOK = 20000

// Maximum number of seed keywords accepted by the live keyword
// research endpoint.
const KeywordsLiveLimit = 700

// apiResponse is the common envelope of every provider response.
type apiResponse struct {
	StatusCode    int       `json:"status_code"`
	StatusMessage string    `json:"status_message"`
	Cost          float64   `json:"cost"`
	Tasks         []apiTask `json:"tasks"`
}

// apiTask is a single task inside the response envelope.
type apiTask struct {
	StatusCode    int               `json:"status_code"`
	StatusMessage string            `json:"status_message"`
	Cost          float64           `json:"cost"`
	Result        []json.RawMessage `json:"result"`
}

// SerpRequest describes one live SERP fetch.
type SerpRequest struct {
	Keyword      string `json:"keyword"`
	LocationCode int    `json:"location_code"`
	LanguageCode string `json:"language_code"`
	Device       string `json:"device,omitempty"`
	OS           string `json:"os,omitempty"`
	Depth        int    `json:"depth,omitempty"`
	// Target restricts results to a single domain when set.
	Target string `json:"target,omitempty"`
}

// SerpItem is one result entry as returned by the provider.
// Missing fields stay at their zero values.
type SerpItem struct {
	Type         string            `json:"type"`
	RankGroup    int               `json:"rank_group"`
	RankAbsolute int               `json:"rank_absolute"`
	Domain       string            `json:"domain"`
	Title        string            `json:"title"`
	URL          string            `json:"url"`
	Description  string            `json:"description"`
	Items        []json.RawMessage `json:"items,omitempty"`
}

// serpResult is the result payload of a SERP task.
type serpResult struct {
	Keyword      string     `json:"keyword"`
	CheckURL     string     `json:"check_url"`
	ItemTypes    []string   `json:"item_types"`
	SeResultsNum int64      `json:"se_results_count"`
	ItemsCount   int        `json:"items_count"`
	Items        []SerpItem `json:"items"`
}

// SerpSnapshot is the outcome of one live SERP fetch.
type SerpSnapshot struct {
	Keyword  string
	CheckURL string
	Items    []SerpItem
	Cost     float64
	// Raw is the full provider response for audit storage.
	Raw []byte
}

// MonthlySearch is one month of search volume history.
type MonthlySearch struct {
	Year         int   `json:"year"`
	Month        int   `json:"month"`
	SearchVolume int64 `json:"search_volume"`
}

// KeywordIdea is one keyword suggestion with volume metrics.
type KeywordIdea struct {
	Keyword          string          `json:"keyword"`
	SearchVolume     int64           `json:"search_volume"`
	Competition      string          `json:"competition"`
	CompetitionIndex float64         `json:"competition_index"`
	LowTopOfPageBid  float64         `json:"low_top_of_page_bid"`
	HighTopOfPageBid float64         `json:"high_top_of_page_bid"`
	CPC              float64         `json:"cpc"`
	MonthlySearches  []MonthlySearch `json:"monthly_searches"`
	// SerpItemTypes lists the result blocks seen on the keyword's SERP
	// (organic, paid, shopping, local_pack, ...). Populated when the
	// request asks for serp_info.
	SerpItemTypes []string `json:"serp_item_types"`
}

// KeywordIdeasResult bundles suggestions with the call cost.
type KeywordIdeasResult struct {
	Ideas []KeywordIdea
	Cost  float64
}

// Balance is the account state reported by the provider.
type Balance struct {
	Login   string  `json:"login"`
	Balance float64 `json:"money_balance"`
}

// userDataResult is the result payload of the user data endpoint.
type userDataResult struct {
	Login string `json:"login"`
	Money struct {
		Balance float64 `json:"balance"`
	} `json:"money"`
}

// Location is one supported SERP location.
type Location struct {
	LocationCode int    `json:"location_code"`
	LocationName string `json:"location_name"`
	CountryCode  string `json:"country_iso_code"`
	LocationType string `json:"location_type"`
}
