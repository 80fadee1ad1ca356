package policy

import "github.com/SuperGenLabs/img-velocity/internal/domain"

func sz(w, h int) domain.Size { return domain.Size{W: w, H: h} }

var defaultEntries = map[domain.AspectRatio]Entry{
	{W: 1, H: 1}: {
		Min:    sz(1600, 1600),
		Folder: "square-1-1",
		Sizes: []domain.Size{
			sz(1600, 1600), // high-res gallery/zoom
			sz(1080, 1080), // Instagram full size
			sz(800, 800),   // desktop grid
			sz(600, 600),
			sz(400, 400), // mobile grid
			sz(200, 200),
			sz(100, 100),
		},
		Thumbnails: []domain.Size{sz(64, 64), sz(32, 32)},
	},
	{W: 16, H: 9}: {
		Min:    sz(3840, 2160),
		Folder: "landscape-16-9",
		Sizes: []domain.Size{
			sz(3840, 2160), // 4K displays
			sz(2560, 1440),
			sz(1920, 1080),
			sz(1280, 720),
			sz(768, 432), // tablet
			sz(640, 360),
			sz(390, 219), // iPhone 14 Pro
			sz(375, 211), // iPhone SE
		},
		Thumbnails: []domain.Size{sz(160, 90), sz(64, 36), sz(32, 18)},
	},
	// Ultrawide. 21:9 reduces to 7:3, so the key and minimum are kept
	// in reduced form; the folder keeps the marketing name.
	{W: 7, H: 3}: {
		Min:    sz(3360, 1440),
		Folder: "ultrawide-21-9",
		Sizes: []domain.Size{
			sz(3360, 1440),
			sz(2520, 1080),
			sz(1890, 810),
			sz(1260, 540),
			sz(756, 324),
			sz(630, 270),
		},
		Thumbnails: []domain.Size{sz(210, 90), sz(105, 45)},
	},
	{W: 4, H: 3}: {
		Min:    sz(2048, 1536),
		Folder: "landscape-4-3",
		Sizes: []domain.Size{
			sz(2048, 1536),
			sz(1600, 1200),
			sz(1280, 960),
			sz(1024, 768), // iPad landscape
			sz(768, 576),
			sz(640, 480),
			sz(400, 300),
		},
		Thumbnails: []domain.Size{sz(160, 120), sz(80, 60), sz(32, 24)},
	},
	{W: 3, H: 2}: {
		Min:    sz(3456, 2304),
		Folder: "landscape-3-2",
		Sizes: []domain.Size{
			sz(3456, 2304), // DSLR native
			sz(2400, 1600),
			sz(1920, 1280),
			sz(1440, 960),
			sz(1200, 800),
			sz(768, 512),
			sz(600, 400),
			sz(375, 250),
		},
		Thumbnails: []domain.Size{sz(150, 100), sz(75, 50), sz(30, 20)},
	},
	{W: 4, H: 5}: {
		Min:    sz(1600, 2000),
		Folder: "instagram-4-5",
		Sizes: []domain.Size{
			sz(1600, 2000),
			sz(1080, 1350), // Instagram max
			sz(800, 1000),
			sz(640, 800),
			sz(480, 600),
			sz(400, 500),
			sz(320, 400),
		},
		Thumbnails: []domain.Size{sz(160, 200), sz(80, 100), sz(32, 40)},
	},
	{W: 9, H: 16}: {
		Min:    sz(810, 1440),
		Folder: "portrait-9-16",
		Sizes: []domain.Size{
			sz(1080, 1920), // stories/reels HD
			sz(720, 1280),
			sz(540, 960),
			sz(428, 761), // iPhone 14 Pro Max
			sz(390, 693),
			sz(375, 667),
			sz(360, 640), // Android
		},
		Thumbnails: []domain.Size{sz(90, 160), sz(45, 80), sz(18, 32)},
	},
	{W: 3, H: 4}: {
		Min:    sz(1536, 2048),
		Folder: "portrait-3-4",
		Sizes: []domain.Size{
			sz(1536, 2048), // iPad Pro portrait
			sz(1200, 1600),
			sz(900, 1200),
			sz(768, 1024),
			sz(600, 800),
			sz(450, 600),
			sz(375, 500),
		},
		Thumbnails: []domain.Size{sz(150, 200), sz(75, 100), sz(30, 40)},
	},
	{W: 2, H: 3}: {
		Min:    sz(1024, 1536),
		Folder: "portrait-2-3",
		Sizes: []domain.Size{
			sz(1600, 2400), // print quality
			sz(1200, 1800),
			sz(1000, 1500),
			sz(800, 1200),
			sz(600, 900),
			sz(400, 600),
			sz(320, 480),
		},
		Thumbnails: []domain.Size{sz(160, 240), sz(80, 120), sz(32, 48)},
	},
	{W: 5, H: 1}: {
		Min:    sz(3840, 768),
		Folder: "wide-banner-5-1",
		Sizes: []domain.Size{
			sz(3840, 768),
			sz(2048, 410),
			sz(1920, 384),
			sz(1024, 205),
			sz(856, 172),
			sz(428, 86),
		},
		Thumbnails: []domain.Size{sz(320, 64), sz(160, 32)},
	},
	{W: 8, H: 1}: {
		Min:    sz(3840, 480),
		Folder: "slim-banner-8-1",
		Sizes: []domain.Size{
			sz(3840, 480),
			sz(2048, 256),
			sz(1920, 240),
			sz(1024, 128),
			sz(856, 108),
			sz(428, 54),
		},
		Thumbnails: []domain.Size{sz(320, 40), sz(160, 20)},
	},
}

// Default returns the built-in eleven-entry table.
func Default() *Table {
	return NewTable(defaultEntries)
}
