package vision

import (
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"sync"
)

// TemplateCache provides thread-safe caching of decoded template images so
// the polling loop avoids redundant disk reads.
//
// Templates are keyed by their exact file path. A path that cannot be opened
// or decoded is cached as a negative entry: later lookups report a miss
// without touching the disk again. Evict clears an entry (positive or
// negative) so an edited or newly created template file is picked up.
type TemplateCache struct {
	mu     sync.RWMutex
	images map[string]image.Image // nil value marks a known-bad path
}

// NewTemplateCache creates an empty cache ready for concurrent use.
func NewTemplateCache() *TemplateCache {
	return &TemplateCache{
		images: make(map[string]image.Image),
	}
}

// Load returns the decoded template for path. The second return is false
// when the file is missing or not a decodable image; this is the matcher's
// no-match failure mode, not an error.
func (c *TemplateCache) Load(path string) (image.Image, bool) {
	if path == "" {
		return nil, false
	}

	c.mu.RLock()
	img, seen := c.images[path]
	c.mu.RUnlock()
	if seen {
		return img, img != nil
	}

	img = decodeFile(path)
	c.mu.Lock()
	c.images[path] = img
	c.mu.Unlock()
	return img, img != nil
}

func decodeFile(path string) image.Image {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil
	}
	return img
}

// Evict removes a specific path from the cache. The next Load for this path
// reads from disk again.
func (c *TemplateCache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	c.mu.Unlock()
}

// Clear removes all cached entries.
func (c *TemplateCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]image.Image)
	c.mu.Unlock()
}
