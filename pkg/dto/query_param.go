package dto

type Filter struct {
	CategoryID string `query:"categoryId"`
	Status     string `query:"status"`
	UserID     string
}
