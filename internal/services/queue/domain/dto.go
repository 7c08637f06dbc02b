package domain

// ListQuery is bound from the dashboard query string
type ListQuery struct {
	Status   string `json:"status"   validate:"omitempty,oneof=pending in_review resolved" example:"pending"`
	Priority string `json:"priority" validate:"omitempty,oneof=urgent high standard low" example:"urgent"`
	Assignee string `json:"assignee" validate:"omitempty,max=128" example:"mod-7"`
	Limit    int    `json:"limit"    validate:"omitempty,min=1,max=200" example:"50"`
	Offset   int    `json:"offset"   validate:"omitempty,min=0" example:"0"`
}

// Page is one window of queue entries
type Page struct {
	Items  []Entry `json:"items"`
	Total  int     `json:"total"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
}
