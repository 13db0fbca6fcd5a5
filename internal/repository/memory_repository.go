package repository

import (
	"time"

	"yedam-go/internal/model"

	"gorm.io/gorm"
)

// MemoryFilter 是回忆列表查询的过滤条件。
type MemoryFilter struct {
	MoodTag   string
	ThemeTag  string
	StartDate *time.Time
	EndDate   *time.Time
	SortBy    string // memoryDate 或 createdAt
	SortOrder string // asc 或 desc
}

// MemoryRepository 接口定义了回忆记录的持久化操作。
type MemoryRepository interface {
	Create(memory *model.Memory) error
	AddImages(memoryID uint, images []model.MemoryImage) error
	FindByID(memoryID uint) (*model.Memory, error)
	FindWithPagination(userID uint, filter MemoryFilter, offset, limit int) ([]model.Memory, int64, error)
	Delete(memoryID uint) error
}

// memoryRepository 是 MemoryRepository 接口的 GORM 实现。
type memoryRepository struct {
	db *gorm.DB
}

// NewMemoryRepository 创建一个新的 MemoryRepository 实例。
func NewMemoryRepository(db *gorm.DB) MemoryRepository {
	return &memoryRepository{db: db}
}

// Create 在数据库中创建一条新的回忆记录。
func (r *memoryRepository) Create(memory *model.Memory) error {
	return r.db.Create(memory).Error
}

// AddImages 批量写入某条回忆的图片记录。
func (r *memoryRepository) AddImages(memoryID uint, images []model.MemoryImage) error {
	if len(images) == 0 {
		return nil
	}
	for i := range images {
		images[i].MemoryID = memoryID
	}
	return r.db.Create(&images).Error
}

// FindByID 根据 ID 查找回忆并预加载图片（按 sort_order 排序）。
func (r *memoryRepository) FindByID(memoryID uint) (*model.Memory, error) {
	var memory model.Memory
	err := r.db.Preload("Images", func(db *gorm.DB) *gorm.DB {
		return db.Order("sort_order ASC")
	}).First(&memory, memoryID).Error
	if err != nil {
		return nil, err
	}
	return &memory, nil
}

// FindWithPagination 按过滤条件分页检索某用户的回忆记录。
// 它返回记录列表、总记录数和可能发生的错误。
func (r *memoryRepository) FindWithPagination(userID uint, filter MemoryFilter, offset, limit int) ([]model.Memory, int64, error) {
	var memories []model.Memory
	var total int64

	db := r.db.Model(&model.Memory{}).Where("user_id = ?", userID)
	if filter.MoodTag != "" {
		db = db.Where("mood_tag = ?", filter.MoodTag)
	}
	if filter.ThemeTag != "" {
		db = db.Where("theme_tag = ?", filter.ThemeTag)
	}
	if filter.StartDate != nil {
		db = db.Where("memory_date >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		db = db.Where("memory_date <= ?", *filter.EndDate)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortColumn := "memory_date"
	if filter.SortBy == "createdAt" {
		sortColumn = "created_at"
	}
	order := "DESC"
	if filter.SortOrder == "asc" {
		order = "ASC"
	}

	err := db.Preload("Images", func(db *gorm.DB) *gorm.DB {
		return db.Order("sort_order ASC")
	}).Order(sortColumn + " " + order).Offset(offset).Limit(limit).Find(&memories).Error
	if err != nil {
		return nil, 0, err
	}

	return memories, total, nil
}

// Delete 删除回忆及其图片记录。
func (r *memoryRepository) Delete(memoryID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("memory_id = ?", memoryID).Delete(&model.MemoryImage{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Memory{}, memoryID).Error
	})
}
