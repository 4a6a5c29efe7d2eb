package main

import (
	"errors"
	"flag"
	"fmt"

	"github.com/BurntSushi/toml"

	"spritepack2d/rectpack"
)

type Options struct {
	UnpackPath            string `toml:"unpack"`    // 解包路径
	InputDir              string `toml:"input"`     // 输入目录
	OutputDir             string `toml:"output"`    // 输出目录
	IsFilesSort           bool   `toml:"sort"`      // 是否按文件名自然排序
	Order                 string `toml:"order"`     // 打包前按尺寸排序 (none, area, perimeter, diff, minside, maxside, ratio)
	IsTrimTransparent     bool   `toml:"trim"`      // 是否修剪透明部分
	TransparencyThreshold uint   `toml:"threshold"` // 透明度阈值
	MaxSize               int    `toml:"max_size"`  // 图集最大边长，0 表示不限制
	SpritePadding         int    `toml:"padding"`   // 图片右侧和下方的间距
	Verbose               bool   `toml:"verbose"`   // 输出调试日志
}

func defaultOptions() Options {
	return Options{
		InputDir:          "input",
		OutputDir:         "output",
		IsFilesSort:       true,
		Order:             "none",
		IsTrimTransparent: true,
		MaxSize:           rectpack.DefaultSize,
	}
}

// parseOptions 解析命令行参数。优先级：默认值 < 配置文件 < 显式指定的命令行参数
func parseOptions(args []string) (Options, error) {
	opts := defaultOptions()
	flagged := opts

	fs := flag.NewFlagSet("spritepack2d", flag.ContinueOnError)
	configPath := fs.String("config", "", "TOML 配置文件")
	fs.StringVar(&flagged.UnpackPath, "unpack", opts.UnpackPath, "解包路径 (atlas.json)")
	fs.StringVar(&flagged.InputDir, "input", opts.InputDir, "输入目录")
	fs.StringVar(&flagged.OutputDir, "output", opts.OutputDir, "输出目录")
	fs.BoolVar(&flagged.IsFilesSort, "sort", opts.IsFilesSort, "按文件名自然排序")
	fs.StringVar(&flagged.Order, "order", opts.Order, "打包顺序 (none, area, perimeter, diff, minside, maxside, ratio)")
	fs.BoolVar(&flagged.IsTrimTransparent, "trim", opts.IsTrimTransparent, "修剪透明部分")
	fs.UintVar(&flagged.TransparencyThreshold, "threshold", opts.TransparencyThreshold, "透明度阈值 (0-255)")
	fs.IntVar(&flagged.MaxSize, "max-size", opts.MaxSize, "图集最大边长，0 表示不限制")
	fs.IntVar(&flagged.SpritePadding, "padding", opts.SpritePadding, "图片间距")
	fs.BoolVar(&flagged.Verbose, "v", opts.Verbose, "输出调试日志")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}

	if *configPath != "" {
		if _, err := toml.DecodeFile(*configPath, &opts); err != nil {
			return opts, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "unpack":
			opts.UnpackPath = flagged.UnpackPath
		case "input":
			opts.InputDir = flagged.InputDir
		case "output":
			opts.OutputDir = flagged.OutputDir
		case "sort":
			opts.IsFilesSort = flagged.IsFilesSort
		case "order":
			opts.Order = flagged.Order
		case "trim":
			opts.IsTrimTransparent = flagged.IsTrimTransparent
		case "threshold":
			opts.TransparencyThreshold = flagged.TransparencyThreshold
		case "max-size":
			opts.MaxSize = flagged.MaxSize
		case "padding":
			opts.SpritePadding = flagged.SpritePadding
		case "v":
			opts.Verbose = flagged.Verbose
		}
	})
	return opts, opts.validate()
}

func (o *Options) validate() error {
	var errs []error
	if o.UnpackPath == "" && o.InputDir == "" {
		errs = append(errs, errors.New("未指定输入目录"))
	}
	if o.OutputDir == "" {
		errs = append(errs, errors.New("未指定输出目录"))
	}
	if o.MaxSize < 0 {
		errs = append(errs, fmt.Errorf("图集最大边长不能为负数 (given %d)", o.MaxSize))
	}
	if o.SpritePadding < 0 {
		errs = append(errs, fmt.Errorf("图片间距不能为负数 (given %d)", o.SpritePadding))
	}
	if o.TransparencyThreshold > 255 {
		errs = append(errs, fmt.Errorf("透明度阈值必须在 0-255 之间 (given %d)", o.TransparencyThreshold))
	}
	if _, err := rectpack.ResolveSort(o.Order); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
