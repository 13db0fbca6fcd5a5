// Package tasks 定义了在 Kafka 中流转的后台任务结构。
package tasks

// MemoryIndexTask 表示一条待索引到 Elasticsearch 的回忆记录。
type MemoryIndexTask struct {
	MemoryID uint `json:"memoryId"`
	UserID   uint `json:"userId"`
}
