package services

import (
	"fmt"
	"os"

	"github.com/vzwork/locus/internal/models"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"gorm.io/gorm"
)

// SeederService bootstraps the channel tree from a JSON seed file on first
// start. The seed document is a nested structure of channel names:
//
//	{"name": "locus", "children": [{"name": "news", "children": []}]}
type SeederService struct {
	db      *gorm.DB
	content *ContentService
}

// NewSeederService creates a new seeder service.
func NewSeederService(db *gorm.DB, content *ContentService) *SeederService {
	return &SeederService{db: db, content: content}
}

// SeedFromFile plants the channel tree described by path. It is a no-op when
// channels already exist, so restarts are safe.
func (s *SeederService) SeedFromFile(path string) error {
	var count int64
	if err := s.db.Model(&models.Channel{}).Count(&count).Error; err != nil {
		return fmt.Errorf("checking existing channels: %w", err)
	}
	if count > 0 {
		logrus.Debug("Channel tree already present, skipping seed")
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading seed file: %w", err)
	}
	doc := gjson.ParseBytes(data)
	if !doc.Get("name").Exists() {
		return fmt.Errorf("seed file %s: root channel has no name", path)
	}

	created, err := s.plant(doc, "")
	if err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"file":     path,
		"channels": created,
	}).Info("Channel tree seeded")
	return nil
}

// plant creates one channel node and recurses into its children.
func (s *SeederService) plant(node gjson.Result, parentID string) (int, error) {
	name := node.Get("name").String()
	channel, err := s.content.CreateChannel(name, parentID)
	if err != nil {
		return 0, fmt.Errorf("creating channel %q: %w", name, err)
	}

	created := 1
	for _, child := range node.Get("children").Array() {
		n, err := s.plant(child, channel.ID)
		if err != nil {
			return created, err
		}
		created += n
	}
	return created, nil
}
