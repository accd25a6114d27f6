package dto

type SidecarRequest struct {
	Query string `json:"query" query:"q" validate:"max=500"`
}

type SidecarResponse struct {
	HTML string `json:"html"`
}
