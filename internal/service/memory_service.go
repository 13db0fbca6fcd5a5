package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"yedam-go/internal/config"
	"yedam-go/internal/model"
	"yedam-go/internal/repository"
	"yedam-go/internal/style"
	"yedam-go/pkg/es"
	"yedam-go/pkg/imaging"
	"yedam-go/pkg/kafka"
	"yedam-go/pkg/log"
	"yedam-go/pkg/storage"
	"yedam-go/pkg/tasks"

	"gorm.io/gorm"
)

// 单条回忆最多允许的图片数量。
const maxImagesPerMemory = 10

var (
	// ErrMemoryNotFound 表示回忆不存在或不属于当前用户。
	ErrMemoryNotFound = errors.New("memory not found")
	// ErrTooManyImages 表示上传图片数超出上限。
	ErrTooManyImages = fmt.Errorf("a memory can hold at most %d images", maxImagesPerMemory)
)

// CreateMemoryInput 是创建回忆的入参。
// Analysis 可选：为 nil 时由服务调用分析器从正文推导。
type CreateMemoryInput struct {
	Title      string
	Content    string
	MemoryDate time.Time
	Location   string
	Analysis   *model.StoryAnalysis
	Images     []ImageUpload
}

// ImageUpload 是一张待上传图片的原始数据。
type ImageUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// MemoryView 是回忆详情的返回结构，附带按需推导的视觉样式。
type MemoryView struct {
	Memory *model.Memory  `json:"memory"`
	Style  *style.Profile `json:"style"`
}

// MemoryService 接口定义了回忆记录相关的业务逻辑。
type MemoryService interface {
	Create(ctx context.Context, userID uint, input CreateMemoryInput) (*model.Memory, error)
	FindAll(ctx context.Context, userID uint, filter repository.MemoryFilter, page, size int) ([]model.Memory, int64, error)
	FindOne(ctx context.Context, userID, memoryID uint) (*MemoryView, error)
	Delete(ctx context.Context, userID, memoryID uint) error
}

type memoryService struct {
	memoryRepo repository.MemoryRepository
	analyzer   AnalyzerService
	store      *storage.Client
	producer   *kafka.Producer
}

// NewMemoryService 创建一个新的 MemoryService 实例。
func NewMemoryService(memoryRepo repository.MemoryRepository, analyzer AnalyzerService, store *storage.Client, producer *kafka.Producer) MemoryService {
	return &memoryService{
		memoryRepo: memoryRepo,
		analyzer:   analyzer,
		store:      store,
		producer:   producer,
	}
}

// Create 创建一条回忆：必要时先做内容分析，再上传图片并落库，
// 最后向 Kafka 投递一条索引任务交给后台管道。
func (s *memoryService) Create(ctx context.Context, userID uint, input CreateMemoryInput) (*model.Memory, error) {
	if len(input.Images) > maxImagesPerMemory {
		return nil, ErrTooManyImages
	}

	analysis := input.Analysis
	if analysis == nil {
		result, err := s.analyzer.Analyze(ctx, input.Content)
		if err != nil {
			return nil, err
		}
		analysis = result
	}

	memory := &model.Memory{
		UserID:         userID,
		Title:          input.Title,
		Content:        input.Content,
		MemoryDate:     input.MemoryDate,
		Location:       input.Location,
		MoodTag:        analysis.MoodTag,
		Intensity:      analysis.Intensity,
		ThemeTag:       analysis.ThemeTag,
		StoryLine:      analysis.StoryLine,
		AnimationTheme: analysis.AnimationTheme,
	}
	if err := s.memoryRepo.Create(memory); err != nil {
		return nil, fmt.Errorf("保存回忆失败: %w", err)
	}

	if len(input.Images) > 0 {
		images, err := s.uploadImages(ctx, memory.ID, input.Images)
		if err != nil {
			return nil, err
		}
		if err := s.memoryRepo.AddImages(memory.ID, images); err != nil {
			return nil, fmt.Errorf("保存图片记录失败: %w", err)
		}
		memory.Images = images
	}

	// 投递索引任务。失败不影响创建结果，记录日志后续补偿。
	task := tasks.MemoryIndexTask{MemoryID: memory.ID, UserID: userID}
	if err := s.producer.Publish(ctx, fmt.Sprintf("memory-%d", memory.ID), task); err != nil {
		log.Errorf("publish index task for memory %d failed: %v", memory.ID, err)
	}

	return memory, nil
}

// uploadImages 依次解码每张图片、生成缩略图并上传到对象存储。
func (s *memoryService) uploadImages(ctx context.Context, memoryID uint, uploads []ImageUpload) ([]model.MemoryImage, error) {
	images := make([]model.MemoryImage, 0, len(uploads))
	for i, upload := range uploads {
		img, info, err := imaging.Decode(upload.Data)
		if err != nil {
			return nil, fmt.Errorf("第 %d 张图片无法解码: %w", i+1, err)
		}

		objectName := fmt.Sprintf("memories/%d/%d_%s", memoryID, i, upload.Filename)
		url, err := s.store.Upload(ctx, objectName, upload.Data, upload.ContentType)
		if err != nil {
			return nil, err
		}

		thumbData, err := imaging.Thumbnail(img)
		if err != nil {
			return nil, err
		}
		thumbName := fmt.Sprintf("memories/%d/thumb_%d.jpg", memoryID, i)
		thumbURL, err := s.store.Upload(ctx, thumbName, thumbData, "image/jpeg")
		if err != nil {
			return nil, err
		}

		images = append(images, model.MemoryImage{
			MemoryID:     memoryID,
			URL:          url,
			ThumbnailURL: thumbURL,
			Width:        info.Width,
			Height:       info.Height,
			SortOrder:    i,
		})
	}
	return images, nil
}

// FindAll 按过滤条件分页查询当前用户的回忆列表。
func (s *memoryService) FindAll(ctx context.Context, userID uint, filter repository.MemoryFilter, page, size int) ([]model.Memory, int64, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size
	return s.memoryRepo.FindWithPagination(userID, filter, offset, size)
}

// FindOne 查询单条回忆详情，并基于分析字段推导视觉样式。
func (s *memoryService) FindOne(ctx context.Context, userID, memoryID uint) (*MemoryView, error) {
	memory, err := s.memoryRepo.FindByID(memoryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemoryNotFound
		}
		return nil, err
	}
	if memory.UserID != userID {
		return nil, ErrMemoryNotFound
	}

	profile := style.Generate(memory.Analysis())
	return &MemoryView{
		Memory: memory,
		Style:  &profile,
	}, nil
}

// Delete 删除回忆及其图片对象，并清理搜索索引中的文档。
func (s *memoryService) Delete(ctx context.Context, userID, memoryID uint) error {
	memory, err := s.memoryRepo.FindByID(memoryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMemoryNotFound
		}
		return err
	}
	if memory.UserID != userID {
		return ErrMemoryNotFound
	}

	if err := s.memoryRepo.Delete(memoryID); err != nil {
		return fmt.Errorf("删除回忆失败: %w", err)
	}

	// 对象与索引的清理失败不回滚数据库删除，记录日志即可。
	for _, img := range memory.Images {
		objectName := objectNameFromURL(img.URL)
		if objectName == "" {
			continue
		}
		if err := s.store.Remove(ctx, objectName); err != nil {
			log.Warnf("remove object %s failed: %v", objectName, err)
		}
		thumbName := objectNameFromURL(img.ThumbnailURL)
		if thumbName != "" {
			if err := s.store.Remove(ctx, thumbName); err != nil {
				log.Warnf("remove object %s failed: %v", thumbName, err)
			}
		}
	}
	if err := es.DeleteDocument(ctx, memoryID); err != nil {
		log.Warnf("delete search document for memory %d failed: %v", memoryID, err)
	}

	return nil
}

// objectNameFromURL 从公开 URL 中还原对象名。
// URL 形如 {base}/{bucket}/{objectName}。
func objectNameFromURL(url string) string {
	base := config.Conf.MinIO.PublicBaseURL + "/" + config.Conf.MinIO.BucketName + "/"
	if len(url) <= len(base) || url[:len(base)] != base {
		return ""
	}
	return url[len(base):]
}
