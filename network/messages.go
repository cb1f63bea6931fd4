package network

import "github.com/wfunc/fighterselect/models"

type WatchScreenRequest struct {
	ScreenID string `json:"screen_id,omitempty"`
}

type ClaimSeatRequest struct {
	Player models.Player `json:"player"`
}

type SlotClickRequest struct {
	Slot int `json:"slot"`
}

type NavigateRequest struct {
	Delta int `json:"delta"`
}

type RandomPickRequest struct {
	Available []int `json:"available"`
}

type SelectTeamRequest struct {
	Team models.Team `json:"team"`
}

type SetJoiningRequest struct {
	Enabled bool `json:"enabled"`
}

type DisplayUpdate struct {
	Player   models.Player `json:"player"`
	Avatar   string        `json:"avatar"`
	Label    string        `json:"label"`
	Animated bool          `json:"animated"`
}

type UnlockMessage struct {
	Text    string `json:"text"`
	Visible bool   `json:"visible"`
}

type FighterSelected struct {
	Player models.Player      `json:"player"`
	Team   models.Team        `json:"team"`
	Index  int                `json:"index"`
	Unlock models.UnlockState `json:"unlock"`
}

type ButtonState struct {
	Button  string `json:"button"`
	Enabled bool   `json:"enabled"`
	Visible bool   `json:"visible"`
}

type ErrorMessage struct {
	Error string `json:"error"`
}

type RandomPickResult struct {
	Index int `json:"index"`
}
