package dto

// ExtractSkillsRequest payload.
type ExtractSkillsRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ExtractSkillsResponse lists detected canonical skills.
type ExtractSkillsResponse struct {
	Skills []string `json:"skills"`
}
