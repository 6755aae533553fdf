package game

// ClipSequencer walks the round identifiers of a room. The list is fixed once
// loaded and the cursor counts rounds started, never rounds finished.
type ClipSequencer struct {
	clips  []string
	index  int
	loaded bool
}

// Load fixes the clip list. Later calls are ignored.
func (c *ClipSequencer) Load(clips []string) {
	if c.loaded {
		return
	}
	c.clips = append([]string(nil), clips...)
	c.loaded = true
}

func (c *ClipSequencer) Loaded() bool {
	return c.loaded
}

// Next returns the clip for the round being started and advances the cursor.
// It reports false, without moving, once every clip has been started.
func (c *ClipSequencer) Next() (string, bool) {
	if c.Exhausted() {
		return "", false
	}
	clip := c.clips[c.index]
	c.index++
	return clip, true
}

func (c *ClipSequencer) Exhausted() bool {
	return c.index >= len(c.clips)
}

// Index is the number of rounds started so far.
func (c *ClipSequencer) Index() int {
	return c.index
}

func (c *ClipSequencer) Len() int {
	return len(c.clips)
}
