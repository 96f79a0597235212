package service

import (
	"gorm.io/gorm"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PageRequest selects a page of a listing. Zero values mean the first page
// of DefaultPageSize rows.
type PageRequest struct {
	Page     int `query:"page"`
	PageSize int `query:"page_size"`
}

func (p PageRequest) normalize() PageRequest {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

// Page is one page of a listing
type Page[T any] struct {
	Count    int64 `json:"count"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Results  []T   `json:"results"`
}

// paginate counts the rows matched by query and loads the requested page.
// query must already carry the model, scopes and filters; order and preloads
// are applied only to the page load.
func paginate[T any](query *gorm.DB, req PageRequest, order string, preloads ...string) (Page[T], error) {
	req = req.normalize()
	page := Page[T]{Page: req.Page, PageSize: req.PageSize, Results: []T{}}

	if err := query.Session(&gorm.Session{}).Count(&page.Count).Error; err != nil {
		return page, err
	}
	if page.Count == 0 {
		return page, nil
	}

	load := query.Session(&gorm.Session{})
	for _, p := range preloads {
		load = load.Preload(p)
	}
	err := load.
		Order(order).
		Offset((req.Page - 1) * req.PageSize).
		Limit(req.PageSize).
		Find(&page.Results).Error
	return page, err
}
