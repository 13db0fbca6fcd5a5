// Package es 封装了 Elasticsearch 客户端的初始化与索引操作。
package es

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"yedam-go/internal/config"
	"yedam-go/internal/model"
	"yedam-go/pkg/log"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// ESClient 是全局的 Elasticsearch 客户端实例。
var ESClient *elasticsearch.Client

// memoryIndexMapping 定义回忆索引的 mapping。
// 正文字段使用 nori 分词器以支持韩语全文检索。
const memoryIndexMapping = `{
  "settings": {
    "analysis": {
      "analyzer": {
        "korean": {
          "type": "custom",
          "tokenizer": "nori_tokenizer"
        }
      }
    }
  },
  "mappings": {
    "properties": {
      "memory_id":       { "type": "long" },
      "user_id":         { "type": "long" },
      "title":           { "type": "text", "analyzer": "korean" },
      "content":         { "type": "text", "analyzer": "korean" },
      "story_line":      { "type": "text", "analyzer": "korean" },
      "mood_tag":        { "type": "keyword" },
      "theme_tag":       { "type": "keyword" },
      "animation_theme": { "type": "keyword" },
      "intensity":       { "type": "integer" },
      "created_at":      { "type": "date" }
    }
  }
}`

// Init 初始化 Elasticsearch 客户端并确保索引存在。
func Init() error {
	cfg := config.Conf.Elasticsearch

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: strings.Split(cfg.Addresses, ","),
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return fmt.Errorf("创建 Elasticsearch 客户端失败: %w", err)
	}
	ESClient = client

	return ensureIndex(cfg.IndexName)
}

// ensureIndex 检查索引是否存在，不存在则按预定义 mapping 创建。
func ensureIndex(indexName string) error {
	res, err := ESClient.Indices.Exists([]string{indexName})
	if err != nil {
		return fmt.Errorf("检查索引失败: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == 200 {
		return nil
	}

	createRes, err := ESClient.Indices.Create(
		indexName,
		ESClient.Indices.Create.WithBody(strings.NewReader(memoryIndexMapping)),
	)
	if err != nil {
		return fmt.Errorf("创建索引失败: %w", err)
	}
	defer createRes.Body.Close()

	if createRes.IsError() {
		body, _ := io.ReadAll(createRes.Body)
		return fmt.Errorf("创建索引返回错误: %s", string(body))
	}

	log.Infof("created elasticsearch index %s", indexName)
	return nil
}

// IndexDocument 将一条回忆文档写入索引，文档 ID 使用回忆 ID。
func IndexDocument(ctx context.Context, doc *model.MemoryDocument) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("序列化文档失败: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      config.Conf.Elasticsearch.IndexName,
		DocumentID: fmt.Sprintf("%d", doc.MemoryID),
		Body:       bytes.NewReader(payload),
		Refresh:    "false",
	}

	res, err := req.Do(ctx, ESClient)
	if err != nil {
		return fmt.Errorf("索引文档失败: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("索引文档返回错误: %s", string(body))
	}
	return nil
}

// DeleteDocument 从索引中删除指定回忆的文档。
func DeleteDocument(ctx context.Context, memoryID uint) error {
	req := esapi.DeleteRequest{
		Index:      config.Conf.Elasticsearch.IndexName,
		DocumentID: fmt.Sprintf("%d", memoryID),
	}

	res, err := req.Do(ctx, ESClient)
	if err != nil {
		return fmt.Errorf("删除文档失败: %w", err)
	}
	defer res.Body.Close()

	// 404 说明文档尚未被索引，无需处理
	if res.IsError() && res.StatusCode != 404 {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("删除文档返回错误: %s", string(body))
	}
	return nil
}

// SearchMemories 在指定用户的回忆中做多字段全文检索。
func SearchMemories(ctx context.Context, userID uint, keyword string, from, size int) ([]model.MemorySearchHit, int64, error) {
	query := map[string]interface{}{
		"from": from,
		"size": size,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"filter": []map[string]interface{}{
					{"term": map[string]interface{}{"user_id": userID}},
				},
				"must": []map[string]interface{}{
					{
						"multi_match": map[string]interface{}{
							"query":  keyword,
							"fields": []string{"title^2", "content", "story_line"},
						},
					},
				},
			},
		},
	}

	payload, err := json.Marshal(query)
	if err != nil {
		return nil, 0, fmt.Errorf("序列化查询失败: %w", err)
	}

	res, err := ESClient.Search(
		ESClient.Search.WithContext(ctx),
		ESClient.Search.WithIndex(config.Conf.Elasticsearch.IndexName),
		ESClient.Search.WithBody(bytes.NewReader(payload)),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("搜索失败: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, 0, fmt.Errorf("搜索返回错误: %s", string(body))
	}

	var result struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Score  float64              `json:"_score"`
				Source model.MemoryDocument `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, 0, fmt.Errorf("解析搜索结果失败: %w", err)
	}

	hits := make([]model.MemorySearchHit, 0, len(result.Hits.Hits))
	for _, h := range result.Hits.Hits {
		hits = append(hits, model.MemorySearchHit{
			MemoryID:  h.Source.MemoryID,
			Title:     h.Source.Title,
			StoryLine: h.Source.StoryLine,
			MoodTag:   h.Source.MoodTag,
			ThemeTag:  h.Source.ThemeTag,
			Score:     h.Score,
		})
	}
	return hits, result.Hits.Total.Value, nil
}
