package main

import "github.com/urfave/cli"

var (
	configPath     string
	saveFolder     string
	quality        string
	codec          string
	excludeShorts  bool
	includeKeyword string
	excludeKeyword string
	dateAfter      string
	dateBefore     string
	keepThumbnails bool
	keepSubtitles  bool
	cookieBrowser  string
	logPath        string
	importPath     string
	exportPath     string
)

var commonFlags = []cli.Flag{
	cli.StringFlag{
		Name:        "config, c",
		Usage:       "path to the settings file",
		EnvVar:      "YTQUEUE_CONFIG",
		Destination: &configPath,
	},
	cli.StringFlag{
		Name:        "import, i",
		Usage:       "bulk-import URLs from a text file before expanding",
		Destination: &importPath,
	},
	cli.StringFlag{
		Name:        "export, e",
		Usage:       "write the final queue to a text file, one URL per line",
		Destination: &exportPath,
	},
}

var downloadFlags = append([]cli.Flag{
	cli.StringFlag{
		Name:        "folder, f",
		Usage:       "folder to save downloads into",
		EnvVar:      "YTQUEUE_FOLDER",
		Destination: &saveFolder,
	},
	cli.StringFlag{
		Name:        "quality, q",
		Usage:       "quality ceiling: best, 2160p (4K), 1440p (2K), 1080p, 720p, 480p",
		Destination: &quality,
	},
	cli.StringFlag{
		Name:        "codec",
		Usage:       "preferred video codec: auto, h264, vp9, av1",
		Destination: &codec,
	},
	cli.BoolFlag{
		Name:        "no-shorts",
		Usage:       "exclude items whose URL contains the shorts marker",
		Destination: &excludeShorts,
	},
	cli.StringFlag{
		Name:        "include",
		Usage:       "only download items whose title contains this keyword",
		Destination: &includeKeyword,
	},
	cli.StringFlag{
		Name:        "exclude",
		Usage:       "skip items whose title contains this keyword",
		Destination: &excludeKeyword,
	},
	cli.StringFlag{
		Name:        "date-after",
		Usage:       "only download items uploaded on/after this date (YYYYMMDD)",
		Destination: &dateAfter,
	},
	cli.StringFlag{
		Name:        "date-before",
		Usage:       "only download items uploaded on/before this date (YYYYMMDD)",
		Destination: &dateBefore,
	},
	cli.BoolFlag{
		Name:        "thumbnails",
		Usage:       "keep thumbnail files next to the downloads",
		Destination: &keepThumbnails,
	},
	cli.BoolFlag{
		Name:        "subtitles",
		Usage:       "keep subtitle files next to the downloads",
		Destination: &keepSubtitles,
	},
	cli.StringFlag{
		Name:        "cookies-from",
		Usage:       "read site cookies from this browser (chrome, edge, firefox)",
		Destination: &cookieBrowser,
	},
	cli.StringFlag{
		Name:        "log-file",
		Usage:       "append a session log to this path",
		Destination: &logPath,
	},
}, commonFlags...)
