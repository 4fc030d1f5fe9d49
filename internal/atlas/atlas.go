// Package atlas parses Spine/libGDX texture atlas descriptors and decodes
// their page images.
package atlas

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"spine-renderer/internal/spineerr"
	"spine-renderer/internal/texture"
)

// Page is one texture page of an atlas. Width and Height are the declared
// page size; legacy atlases may omit them until the bitmap is decoded.
type Page struct {
	Name      string
	Width     int
	Height    int
	Format    string
	MinFilter string
	MagFilter string
	Repeat    string
	PMA       bool
	Texture   *texture.Texture
}

// Region is a named rectangle on a page. Width/Height are the unrotated
// region size; a region rotated by 90 degrees occupies Height×Width pixels.
type Region struct {
	Name           string
	Page           int
	X, Y           int
	Width, Height  int
	OffsetX        float32
	OffsetY        float32
	OriginalWidth  int
	OriginalHeight int
	Degrees        int
	Index          int
	U, V, U2, V2   float32
}

// Rotated reports whether the region is stored rotated by 90 degrees.
func (r *Region) Rotated() bool { return r.Degrees == 90 }

// Atlas owns pages and regions. Regions reference pages by index.
type Atlas struct {
	Pages   []Page
	Regions []Region
	byName  map[string]int
}

// FindRegion returns the first region with the given name.
func (a *Atlas) FindRegion(name string) (*Region, bool) {
	i, ok := a.byName[name]
	if !ok {
		return nil, false
	}
	return &a.Regions[i], true
}

// Load parses the atlas at path and decodes every page image through cache.
// Page images are resolved relative to the atlas directory. The returned
// atlas is complete: any page that fails to decode fails the whole load.
func Load(path string, cache *texture.Cache) (*Atlas, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(spineerr.ErrMalformedInput, "atlas: open %s: %v", path, err)
	}
	defer f.Close()

	a, err := Parse(f)
	if err != nil {
		return nil, errors.WithMessagef(err, "atlas: %s", path)
	}

	dir := filepath.Dir(path)
	if cache == nil {
		cache = texture.NewCache(texture.BuildIndex(dir))
	}
	for i := range a.Pages {
		p := &a.Pages[i]
		tex, err := cache.Resolve(filepath.Join(dir, p.Name), p.PMA)
		if err != nil {
			return nil, errors.WithMessagef(err, "atlas: page %q", p.Name)
		}
		p.Texture = tex

		// Very old atlas files expected the texture's actual size to be used at runtime.
		if p.Width == 0 || p.Height == 0 {
			log.Debug().Str("page", p.Name).Int("width", tex.Width).Int("height", tex.Height).
				Msg("atlas: page size back-filled from bitmap")
			p.Width = tex.Width
			p.Height = tex.Height
		}
	}
	a.computeUVs()
	return a, nil
}

// Parse reads an atlas descriptor without decoding page images. Region UVs
// are computed from declared page sizes; Load recomputes them after any
// size back-fill.
func Parse(r io.Reader) (*Atlas, error) {
	p := &parser{sc: bufio.NewScanner(r)}
	a, err := p.parse()
	if err != nil {
		return nil, err
	}
	a.computeUVs()
	return a, nil
}

func (a *Atlas) computeUVs() {
	for i := range a.Regions {
		r := &a.Regions[i]
		pg := &a.Pages[r.Page]
		if pg.Width == 0 || pg.Height == 0 {
			continue
		}
		pw, ph := float32(pg.Width), float32(pg.Height)
		r.U = float32(r.X) / pw
		r.V = float32(r.Y) / ph
		if r.Rotated() {
			r.U2 = float32(r.X+r.Height) / pw
			r.V2 = float32(r.Y+r.Width) / ph
		} else {
			r.U2 = float32(r.X+r.Width) / pw
			r.V2 = float32(r.Y+r.Height) / ph
		}
	}
}

type parser struct {
	sc     *bufio.Scanner
	lineNo int
	line   string
	eof    bool
}

func (p *parser) next() {
	if p.sc.Scan() {
		p.line = p.sc.Text()
		p.lineNo++
		return
	}
	p.line = ""
	p.eof = true
}

// entry splits "key: v1, v2, ..." into key and up to four values.
// ok is false for blank lines and lines without a colon.
func entry(line string) (key string, values []string, ok bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", nil, false
	}
	colon := strings.IndexByte(line, ':')
	if colon == -1 {
		return "", nil, false
	}
	key = strings.TrimSpace(line[:colon])
	for _, v := range strings.SplitN(line[colon+1:], ",", 4) {
		values = append(values, strings.TrimSpace(v))
	}
	return key, values, true
}

func (p *parser) parse() (*Atlas, error) {
	a := &Atlas{byName: make(map[string]int)}

	p.next()
	for !p.eof && strings.TrimSpace(p.line) == "" {
		p.next()
	}
	// Header entries before the first page are ignored.
	for !p.eof {
		if _, _, ok := entry(p.line); !ok {
			break
		}
		p.next()
	}

	page := -1
	for !p.eof {
		name := strings.TrimSpace(p.line)
		if name == "" {
			page = -1
			p.next()
			continue
		}
		if page == -1 {
			pg, err := p.readPage(name)
			if err != nil {
				return nil, err
			}
			a.Pages = append(a.Pages, pg)
			page = len(a.Pages) - 1
			continue
		}
		rg, err := p.readRegion(name, page)
		if err != nil {
			return nil, err
		}
		if _, exists := a.byName[rg.Name]; !exists {
			a.byName[rg.Name] = len(a.Regions)
		}
		a.Regions = append(a.Regions, rg)
	}
	if err := p.sc.Err(); err != nil {
		return nil, errors.Wrapf(spineerr.ErrMalformedInput, "read: %v", err)
	}
	if len(a.Pages) == 0 {
		return nil, spineerr.Malformed("no pages")
	}
	return a, nil
}

func (p *parser) readPage(name string) (Page, error) {
	pg := Page{Name: name, MinFilter: "Nearest", MagFilter: "Nearest", Repeat: "none"}
	for {
		p.next()
		key, values, ok := entry(p.line)
		if !ok {
			return pg, nil
		}
		var err error
		switch key {
		case "size":
			pg.Width, pg.Height, err = ints2(values)
		case "format":
			pg.Format = values[0]
		case "filter":
			pg.MinFilter = values[0]
			if len(values) > 1 {
				pg.MagFilter = values[1]
			}
		case "repeat":
			pg.Repeat = values[0]
		case "pma":
			pg.PMA = values[0] == "true"
		}
		if err != nil {
			return pg, spineerr.Malformed("line %d: page %q %s: %v", p.lineNo, name, key, err)
		}
	}
}

func (p *parser) readRegion(name string, page int) (Region, error) {
	rg := Region{Name: name, Page: page, Index: -1}
	for {
		p.next()
		key, values, ok := entry(p.line)
		if !ok {
			break
		}
		var err error
		switch key {
		case "xy":
			rg.X, rg.Y, err = ints2(values)
		case "size":
			rg.Width, rg.Height, err = ints2(values)
		case "bounds":
			var v [4]int
			if v, err = ints4(values); err == nil {
				rg.X, rg.Y, rg.Width, rg.Height = v[0], v[1], v[2], v[3]
			}
		case "offset":
			var x, y int
			if x, y, err = ints2(values); err == nil {
				rg.OffsetX, rg.OffsetY = float32(x), float32(y)
			}
		case "orig":
			rg.OriginalWidth, rg.OriginalHeight, err = ints2(values)
		case "offsets":
			var v [4]int
			if v, err = ints4(values); err == nil {
				rg.OffsetX, rg.OffsetY = float32(v[0]), float32(v[1])
				rg.OriginalWidth, rg.OriginalHeight = v[2], v[3]
			}
		case "rotate":
			switch values[0] {
			case "true":
				rg.Degrees = 90
			case "false":
				rg.Degrees = 0
			default:
				rg.Degrees, err = strconv.Atoi(values[0])
			}
		case "index":
			rg.Index, err = strconv.Atoi(values[0])
		}
		if err != nil {
			return rg, spineerr.Malformed("line %d: region %q %s: %v", p.lineNo, name, key, err)
		}
	}
	if rg.OriginalWidth == 0 && rg.OriginalHeight == 0 {
		rg.OriginalWidth = rg.Width
		rg.OriginalHeight = rg.Height
	}
	return rg, nil
}

func ints2(values []string) (int, int, error) {
	if len(values) < 2 {
		return 0, 0, errors.Errorf("want 2 values, got %d", len(values))
	}
	a, err := strconv.Atoi(values[0])
	if err != nil {
		return 0, 0, err
	}
	b, err := strconv.Atoi(values[1])
	return a, b, err
}

func ints4(values []string) ([4]int, error) {
	var out [4]int
	if len(values) < 4 {
		return out, errors.Errorf("want 4 values, got %d", len(values))
	}
	for i := range out {
		v, err := strconv.Atoi(values[i])
		if err != nil {
			return out, err
		}
		out[i] = v
	}
	return out, nil
}
