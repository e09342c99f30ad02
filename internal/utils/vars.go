package utils

import (
	"regexp"
	"time"
)

const DefaultBufferSize = 1024 * 256 // 256KB read chunk
const LogFile = ".dw.log"
const ToolUserAgent = "dw/1.0"

const (
	DefaultWorkers        = 5
	DefaultRetries        = 3
	DefaultTimeout        = 30 * time.Second
	DefaultConnectTimeout = 5 * time.Second
	DefaultKATimeout      = 90 * time.Second
	MaxFilenameLength     = 100
)

var (
	queryFragmentRegex = regexp.MustCompile(`[?#].*$`)
	hostSpecialRegex   = regexp.MustCompile(`[^a-zA-Z0-9_]+`)
	nameSpecialRegex   = regexp.MustCompile(`[^a-zA-Z0-9_.]+`)
)
