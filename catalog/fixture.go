package catalog

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rushteam/swipekit/core"
)

// Fixture 是开发/测试用的 YAML 数据集：目录、好友关系和可选的初始交互。
//
// 示例：
//
//	items:
//	  - id: i1
//	    category: Activewear
//	    brand: Vuori
//	    price: 90
//	    colors: [black]
//	friends:
//	  - [alice, bob]
//	interactions:
//	  - {user: alice, item: i1, action: like, at: 2026-01-01T12:00:00Z}
type Fixture struct {
	Items        []*core.Item
	Friends      [][2]string
	Interactions []core.Interaction
}

type fixtureFile struct {
	Items        []fixtureItem `yaml:"items"`
	Friends      [][]string    `yaml:"friends"`
	Interactions []struct {
		User   string    `yaml:"user"`
		Item   string    `yaml:"item"`
		Action string    `yaml:"action"`
		At     time.Time `yaml:"at"`
	} `yaml:"interactions"`
}

type fixtureItem struct {
	ID       string   `yaml:"id"`
	Name     string   `yaml:"name"`
	Category string   `yaml:"category"`
	Brand    string   `yaml:"brand"`
	Gender   string   `yaml:"gender"`
	Price    *float64 `yaml:"price"`
	Tags     []string `yaml:"tags"`
	Colors   []string `yaml:"colors"`
	GroupID  string   `yaml:"group_id"`
	// 缺省视为在售
	Active *bool `yaml:"active"`
}

func (fi fixtureItem) item() *core.Item {
	return &core.Item{
		ID:       fi.ID,
		Name:     fi.Name,
		Category: fi.Category,
		Brand:    fi.Brand,
		Gender:   fi.Gender,
		Price:    fi.Price,
		Tags:     fi.Tags,
		Colors:   fi.Colors,
		GroupID:  fi.GroupID,
		Active:   fi.Active == nil || *fi.Active,
	}
}

// LoadFixture 从文件读取数据集。
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	return ParseFixture(data)
}

// ParseFixture 解析 YAML 数据集。
func ParseFixture(data []byte) (*Fixture, error) {
	var raw fixtureFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}

	fx := &Fixture{}
	seen := make(map[string]struct{}, len(raw.Items))
	for i, ri := range raw.Items {
		it := ri.item()
		if it.ID == "" {
			return nil, fmt.Errorf("item #%d: missing id", i)
		}
		if _, dup := seen[it.ID]; dup {
			return nil, fmt.Errorf("item %q: duplicate id", it.ID)
		}
		if it.Price != nil && *it.Price < 0 {
			return nil, fmt.Errorf("item %q: negative price", it.ID)
		}
		seen[it.ID] = struct{}{}
		fx.Items = append(fx.Items, it)
	}

	for i, pair := range raw.Friends {
		if len(pair) != 2 || pair[0] == "" || pair[1] == "" {
			return nil, fmt.Errorf("friends #%d: want a pair of user ids", i)
		}
		fx.Friends = append(fx.Friends, [2]string{pair[0], pair[1]})
	}

	for i, ri := range raw.Interactions {
		action, err := core.ParseAction(ri.Action)
		if err != nil {
			return nil, fmt.Errorf("interaction #%d: %w", i, err)
		}
		fx.Interactions = append(fx.Interactions, core.Interaction{
			UserID:    ri.User,
			ItemID:    ri.Item,
			Action:    action,
			Timestamp: ri.At,
		})
	}
	return fx, nil
}

// Catalog 用数据集中的物品构造内存目录。
func (fx *Fixture) Catalog() *Memory {
	return NewMemory(fx.Items...)
}
