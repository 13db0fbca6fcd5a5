package service

import (
	"context"
	"strings"

	"yedam-go/internal/model"
	"yedam-go/pkg/es"
)

// SearchResult 是关键词搜索的返回结构。
type SearchResult struct {
	Hits  []model.MemorySearchHit `json:"hits"`
	Total int64                   `json:"total"`
}

// SearchService 接口定义了回忆的全文检索逻辑。
type SearchService interface {
	Search(ctx context.Context, userID uint, keyword string, page, size int) (*SearchResult, error)
}

type searchService struct{}

// NewSearchService 创建一个新的 SearchService 实例。
func NewSearchService() SearchService {
	return &searchService{}
}

// Search 对当前用户的回忆做关键词检索。空关键词返回空结果。
func (s *searchService) Search(ctx context.Context, userID uint, keyword string, page, size int) (*SearchResult, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return &SearchResult{Hits: []model.MemorySearchHit{}}, nil
	}

	if page < 1 {
		page = 1
	}
	if size < 1 || size > 50 {
		size = 10
	}
	from := (page - 1) * size

	hits, total, err := es.SearchMemories(ctx, userID, keyword, from, size)
	if err != nil {
		return nil, err
	}
	return &SearchResult{Hits: hits, Total: total}, nil
}
