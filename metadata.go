package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"spritepack2d/rectpack"
)

// SpriteInfo 存储精灵图的信息
type SpriteInfo struct {
	Filename   string         `json:"filename"`
	Region     rectpack.Rect  `json:"region"`
	SourceSize rectpack.Size  `json:"sourceSize"`
	SourceRect *rectpack.Rect `json:"sourceRect,omitempty"`
	Trimmed    bool           `json:"trimmed"`
}

// AtlasData 存储图集的元数据
type AtlasData struct {
	Meta struct {
		Version   string `json:"version"`
		Timestamp string `json:"timestamp"`
	} `json:"meta"`
	Image   string                `json:"image"`
	Size    rectpack.Size         `json:"size"`
	Sprites map[string]SpriteInfo `json:"sprites"`
}

// newAtlasData 根据打包结果生成元数据，atlas.Images 与 sprites 一一对应
func newAtlasData(atlas *rectpack.Atlas, sprites []sprite, imageName string, now time.Time) AtlasData {
	var data AtlasData
	data.Meta.Version = VERSION
	data.Meta.Timestamp = now.Format("2006-01-02 15:04:05")
	data.Image = imageName
	data.Size = rectpack.NewSize(atlas.Width, atlas.Height)
	data.Sprites = make(map[string]SpriteInfo, len(sprites))

	for i, placed := range atlas.Images {
		s := &sprites[i]
		info := SpriteInfo{
			Filename:   s.Name,
			Region:     placed.Rect,
			SourceSize: s.SourceSize,
		}
		if s.Trimmed() {
			r := s.SourceRect
			info.Trimmed = true
			info.SourceRect = &rectpack.Rect{
				Point: rectpack.NewPoint(r.Min.X, r.Min.Y),
				Size:  rectpack.NewSize(r.Dx(), r.Dy()),
			}
		}
		data.Sprites[s.Name] = info
	}
	return data
}

func writeAtlasData(path string, data AtlasData) error {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, jsonData, 0644)
}

func readAtlasData(path string) (AtlasData, error) {
	var data AtlasData
	jsonData, err := os.ReadFile(path)
	if err != nil {
		return data, fmt.Errorf("读取图集JSON文件失败: %w", err)
	}
	if err := json.Unmarshal(jsonData, &data); err != nil {
		return data, fmt.Errorf("解析JSON失败: %w", err)
	}
	return data, nil
}
