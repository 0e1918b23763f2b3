package feature

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/paulmach/orb"
	"github.com/rotisserie/eris"
	"github.com/serjvanilla/go-overpass"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// FromOverpass converts an Overpass result. Tagged nodes become points,
// open ways become lines and closed ways become polygons unless they are
// tagged as linear (area=no, or a highway without area=yes). Untagged
// nodes are way members and are skipped. Output is ordered by element
// type then OSM id. Spec fields name OSM tags.
func FromOverpass(res overpass.Result, spec Spec) *Batch {
	b := &Batch{Source: spec.Source}

	nodeIDs := make([]int64, 0, len(res.Nodes))
	for id, n := range res.Nodes {
		if n != nil && len(n.Tags) > 0 {
			nodeIDs = append(nodeIDs, id)
		}
	}
	sort.Slice(nodeIDs, func(i, j int) bool { return nodeIDs[i] < nodeIDs[j] })

	for _, id := range nodeIDs {
		n := res.Nodes[id]
		f := osmFeature("node", id, n.Tags, spec)
		f.Kind, f.Point = KindPoint, orb.Point{n.Lon, n.Lat}
		b.add(spec, f, n.Tags[spec.MagnitudeField])
	}

	wayIDs := make([]int64, 0, len(res.Ways))
	for id, w := range res.Ways {
		if w != nil {
			wayIDs = append(wayIDs, id)
		}
	}
	sort.Slice(wayIDs, func(i, j int) bool { return wayIDs[i] < wayIDs[j] })

	for _, id := range wayIDs {
		w := res.Ways[id]
		f := osmFeature("way", id, w.Tags, spec)
		if !wayShape(w, &f) {
			b.MissingGeometry++
			continue
		}
		b.add(spec, f, w.Tags[spec.MagnitudeField])
	}
	return b
}

func osmFeature(kind string, id int64, tags map[string]string, spec Spec) RawFeature {
	attrs := make(map[string]string, len(tags))
	for k, v := range tags {
		attrs[k] = v
	}
	return RawFeature{
		ID:         kind + "/" + strconv.FormatInt(id, 10),
		Category:   tags[spec.CategoryField],
		Attributes: attrs,
	}
}

// wayShape resolves member node coordinates. A member the response did not
// include has no coordinates and makes the way unusable.
func wayShape(w *overpass.Way, f *RawFeature) bool {
	if len(w.Nodes) < 2 {
		return false
	}
	ls := make(orb.LineString, 0, len(w.Nodes))
	for _, n := range w.Nodes {
		if n == nil || (n.Lat == 0 && n.Lon == 0) {
			return false
		}
		ls = append(ls, orb.Point{n.Lon, n.Lat})
	}

	closed := len(w.Nodes) >= 4 && w.Nodes[0].ID == w.Nodes[len(w.Nodes)-1].ID
	linear := w.Tags["area"] == "no" || (w.Tags["highway"] != "" && w.Tags["area"] != "yes")
	if closed && !linear {
		f.Kind, f.Shape = KindPolygon, orb.MultiPolygon{{orb.Ring(ls)}}
		return true
	}
	f.Kind, f.Path = KindLine, ls
	return validPath(ls)
}

type overpassElement struct {
	Type  string            `json:"type"`
	ID    int64             `json:"id"`
	Lat   float64           `json:"lat"`
	Lon   float64           `json:"lon"`
	Nodes []int64           `json:"nodes"`
	Tags  map[string]string `json:"tags"`
}

// DecodeOverpassJSON reads a saved Overpass API response ([out:json]) into
// the same shape the live client returns. Way members missing from the
// response are kept as coordinate-less nodes.
func DecodeOverpassJSON(r io.Reader) (overpass.Result, error) {
	var body struct {
		Elements []overpassElement `json:"elements"`
	}
	if err := json.NewDecoder(r).Decode(&body); err != nil {
		return overpass.Result{}, eris.Wrap(err, "feature: decode overpass json")
	}

	res := overpass.Result{
		Nodes: make(map[int64]*overpass.Node),
		Ways:  make(map[int64]*overpass.Way),
	}
	node := func(id int64) *overpass.Node {
		n, ok := res.Nodes[id]
		if !ok {
			n = &overpass.Node{Meta: overpass.Meta{ID: id}}
			res.Nodes[id] = n
		}
		return n
	}
	for _, el := range body.Elements {
		if el.Type != "node" {
			continue
		}
		n := node(el.ID)
		n.Lat, n.Lon = el.Lat, el.Lon
		if len(el.Tags) > 0 {
			n.Tags = el.Tags
		}
	}
	for _, el := range body.Elements {
		if el.Type != "way" {
			continue
		}
		w := &overpass.Way{Meta: overpass.Meta{ID: el.ID, Tags: el.Tags}}
		for _, ref := range el.Nodes {
			w.Nodes = append(w.Nodes, node(ref))
		}
		res.Ways[el.ID] = w
	}
	return res, nil
}

// OverpassSource runs Overpass QL queries against one endpoint. Requests are
// spaced by a limiter to respect the public instances' fair-use policy.
type OverpassSource struct {
	client  *overpass.Client
	limiter *rate.Limiter
	log     *zap.Logger
}

// NewOverpassSource creates a source. A non-positive rps disables spacing.
func NewOverpassSource(endpoint string, timeout time.Duration, rps float64) *OverpassSource {
	httpClient := &http.Client{Timeout: timeout}
	client := overpass.NewWithSettings(endpoint, 1, httpClient)

	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	return &OverpassSource{
		client:  &client,
		limiter: rate.NewLimiter(limit, 1),
		log:     zap.L().With(zap.String("component", "overpass")),
	}
}

// Fetch waits for the limiter and runs query.
func (s *OverpassSource) Fetch(ctx context.Context, query string) (overpass.Result, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return overpass.Result{}, eris.Wrap(err, "overpass: rate limiter wait")
	}

	start := time.Now()
	res, err := s.client.Query(query)
	if err != nil {
		return overpass.Result{}, eris.Wrap(err, "overpass: query")
	}
	s.log.Info("overpass query complete",
		zap.Int("nodes", len(res.Nodes)),
		zap.Int("ways", len(res.Ways)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return res, nil
}
