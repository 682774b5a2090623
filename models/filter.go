package models

// Filter holds the user-chosen nearby filters. The zero value means
// "no filtering beyond the default minimum of one shared interest".
type Filter struct {
	MinShared         int      `json:"minShared"`
	SelectedInterests []string `json:"selectedInterests"`
	OnlineOnly        bool     `json:"onlineOnly"`
}
