package models

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"github.com/shibukawa/configdir"
)

const ConfigName = "config.toml"

type Config struct {
	// longest user string the kernel will scan for a terminator
	MaxStr int `toml:"max_str"`
	// console writes are split into chunks of this many bytes
	ConsoleChunk int `toml:"console_chunk"`
	StackPages   int `toml:"stack_pages"`
	HeapPages    int `toml:"heap_pages"`

	// FsRoot selects the host directory filesystem; empty means in-memory.
	FsRoot string `toml:"fs_root"`

	TraceSys  bool   `toml:"strace"`
	TraceFile string `toml:"trace_file"`
	Strsize   int    `toml:"strsize"`
	Verbose   bool   `toml:"verbose"`
	Color     bool   `toml:"color"`

	Output io.Writer `toml:"-"`
	Input  io.Reader `toml:"-"`
}

func DefaultConfig() *Config {
	return &Config{
		MaxStr:       4096,
		ConsoleChunk: 256,
		StackPages:   1,
		HeapPages:    4,
		Strsize:      30,
		Output:       os.Stdout,
		Input:        os.Stdin,
	}
}

// Init fills zero values with defaults.
func (c *Config) Init() *Config {
	def := DefaultConfig()
	if c.MaxStr <= 0 {
		c.MaxStr = def.MaxStr
	}
	if c.ConsoleChunk <= 0 {
		c.ConsoleChunk = def.ConsoleChunk
	}
	if c.StackPages <= 0 {
		c.StackPages = def.StackPages
	}
	if c.HeapPages <= 0 {
		c.HeapPages = def.HeapPages
	}
	if c.Strsize < 0 {
		c.Strsize = 0
	}
	if c.Output == nil {
		c.Output = def.Output
	}
	if c.Input == nil {
		c.Input = strings.NewReader("")
	}
	return c
}

// LoadConfig decodes a TOML file over the defaults.
func LoadConfig(path string) (*Config, error) {
	c := DefaultConfig()
	if _, err := toml.DecodeFile(path, c); err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", path)
	}
	return c.Init(), nil
}

// FindConfig returns the first config.toml in the user/system config folders, or "".
func FindConfig() string {
	dirs := configdir.New("userprog", "config")
	if folder := dirs.QueryFolderContainsFile(ConfigName); folder != nil {
		return filepath.Join(folder.Path, ConfigName)
	}
	return ""
}
