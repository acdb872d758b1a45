package osmparser

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/lintang-b-s/navroute/pkg/geo"
	"github.com/lintang-b-s/navroute/pkg/util"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/simplify"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"go.uber.org/zap"
)

// planar tolerance in degrees, roughly 10cm
const simplifyThreshold = 1e-6

type wayInfo struct {
	oneWay  bool
	forward bool
}

type OsmParser struct {
	log *zap.Logger

	wayNodeMap      map[int64]NodeType
	acceptedNodeMap map[int64]NodeCoord
	barrierNodes    map[int64]bool
	maxNodeID       int64

	vertices map[int64]NodeCoord
	edgeSet  map[roadKey]struct{}
	roads    []Road
}

// roadKey identifies a road by its endpoints and length (millimeters), so parallel roads
// of different length between the same junctions are all kept.
type roadKey struct {
	from, to int64
	length   float64
}

func NewOSMParser(log *zap.Logger) *OsmParser {
	return &OsmParser{
		log:             log,
		wayNodeMap:      make(map[int64]NodeType),
		acceptedNodeMap: make(map[int64]NodeCoord),
		barrierNodes:    make(map[int64]bool),
		vertices:        make(map[int64]NodeCoord),
		edgeSet:         make(map[roadKey]struct{}),
		roads:           make([]Road, 0),
	}
}

// Parse reads an OSM pbf extract twice: the first pass counts how many accepted ways use each
// node, the second collects node coordinates and splits every accepted way into roads at
// junction nodes and barriers.
func (p *OsmParser) Parse(ctx context.Context, r io.ReadSeeker) (*RoadNetwork, error) {
	countWays, err := p.scanWayNodes(ctx, r)
	if err != nil {
		return nil, err
	}
	p.log.Sugar().Infof("accepted openstreetmap ways: %d", countWays)

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	// must not be parallel: nodes have to be seen before the ways referencing them
	scanner := osmpbf.New(ctx, r, 1)
	defer scanner.Close()
	scanner.SkipRelations = true

	countWays = 0
	countNodes := 0
	for scanner.Scan() {
		switch o := scanner.Object().(type) {
		case *osm.Node:
			if (countNodes+1)%500000 == 0 {
				p.log.Sugar().Infof("processing openstreetmap nodes: %d...", countNodes+1)
			}
			countNodes++
			p.processNode(o)
		case *osm.Way:
			if len(o.Nodes) < 2 || !acceptOsmWay(o) {
				continue
			}
			if (countWays+1)%100000 == 0 {
				p.log.Sugar().Infof("processing openstreetmap ways: %d...", countWays+1)
			}
			countWays++
			p.processWay(o)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan osm pbf: %w", err)
	}

	network := p.network()
	p.log.Info("road network parsed", zap.Int("vertices", len(network.Vertices)),
		zap.Int("roads", len(network.Roads)))
	return network, nil
}

func (p *OsmParser) scanWayNodes(ctx context.Context, r io.Reader) (int, error) {
	scanner := osmpbf.New(ctx, r, 1)
	defer scanner.Close()
	scanner.SkipNodes = true
	scanner.SkipRelations = true

	countWays := 0
	for scanner.Scan() {
		way, ok := scanner.Object().(*osm.Way)
		if !ok || len(way.Nodes) < 2 || !acceptOsmWay(way) {
			continue
		}
		if (countWays+1)%50000 == 0 {
			p.log.Sugar().Infof("scanning openstreetmap ways: %d...", countWays+1)
		}
		countWays++

		for i, n := range way.Nodes {
			if _, ok := p.wayNodeMap[int64(n.ID)]; !ok {
				if i == 0 || i == len(way.Nodes)-1 {
					p.wayNodeMap[int64(n.ID)] = END_NODE
				} else {
					p.wayNodeMap[int64(n.ID)] = BETWEEN_NODE
				}
			} else {
				p.wayNodeMap[int64(n.ID)] = JUNCTION_NODE
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("scan osm pbf: %w", err)
	}
	return countWays, nil
}

func (p *OsmParser) processNode(n *osm.Node) {
	p.maxNodeID = max(p.maxNodeID, int64(n.ID))

	if _, ok := p.wayNodeMap[int64(n.ID)]; !ok {
		return
	}
	p.acceptedNodeMap[int64(n.ID)] = NewNodeCoord(n.Lat, n.Lon)

	barrierType := n.Tags.Find("barrier")
	if _, ok := acceptedBarrierType[barrierType]; ok && n.Tags.Find("access") == "no" {
		p.barrierNodes[int64(n.ID)] = true
	}
}

func (p *OsmParser) processWay(way *osm.Way) {
	info := wayDirection(way)
	name := way.Tags.Find("name")
	highway := way.Tags.Find("highway")

	waySegment := []node{}
	for i, wayNode := range way.Nodes {
		coord, ok := p.acceptedNodeMap[int64(wayNode.ID)]
		if !ok {
			// node outside the extract
			if len(waySegment) > 1 {
				p.processSegment(waySegment, way, name, highway, info)
			}
			waySegment = []node{}
			continue
		}
		nodeData := node{id: int64(wayNode.ID), coord: coord}

		waySegment = append(waySegment, nodeData)
		if i > 0 && i < len(way.Nodes)-1 && p.isJunctionNode(nodeData.id) && len(waySegment) > 1 {
			p.processSegment(waySegment, way, name, highway, info)
			waySegment = []node{nodeData}
		}
	}
	if len(waySegment) > 1 {
		p.processSegment(waySegment, way, name, highway, info)
	}
}

func (p *OsmParser) processSegment(segment []node, way *osm.Way, name, highway string, info wayInfo) {
	if len(segment) == 2 && segment[0].id == segment[1].id {
		return
	} else if len(segment) > 2 && segment[0].id == segment[len(segment)-1].id {
		// closed way: split so that source and target differ
		p.splitAtBarriers(segment[0:len(segment)-1], way, name, highway, info)
		p.splitAtBarriers(segment[len(segment)-2:], way, name, highway, info)
	} else {
		p.splitAtBarriers(segment, way, name, highway, info)
	}
}

// splitAtBarriers disconnects the road at impassable barrier nodes by giving the far side a fresh node id.
func (p *OsmParser) splitAtBarriers(segment []node, way *osm.Way, name, highway string, info wayInfo) {
	waySegment := []node{}
	for _, nodeData := range segment {
		if !p.barrierNodes[nodeData.id] {
			waySegment = append(waySegment, nodeData)
			continue
		}

		if len(waySegment) != 0 {
			waySegment = append(waySegment, nodeData)
			p.addRoad(waySegment, way, name, highway, info)
			waySegment = []node{}
		}
		waySegment = append(waySegment, p.copyNode(nodeData))
	}
	if len(waySegment) > 1 {
		p.addRoad(waySegment, way, name, highway, info)
	}
}

func (p *OsmParser) copyNode(nodeData node) node {
	p.maxNodeID++
	p.acceptedNodeMap[p.maxNodeID] = nodeData.coord
	return node{id: p.maxNodeID, coord: nodeData.coord}
}

func (p *OsmParser) addRoad(segment []node, way *osm.Way, name, highway string, info wayInfo) {
	if !info.forward {
		reversed := make([]node, len(segment))
		for i := range segment {
			reversed[len(segment)-1-i] = segment[i]
		}
		segment = reversed
	}

	from, to := segment[0], segment[len(segment)-1]
	if from.id == to.id {
		return
	}

	ls := make(orb.LineString, 0, len(segment))
	length := 0.0
	for i, n := range segment {
		ls = append(ls, orb.Point{n.coord.lon, n.coord.lat})
		if i > 0 {
			length += geo.GeodesicDistance(
				geo.NewCoordinate(segment[i-1].coord.lat, segment[i-1].coord.lon),
				geo.NewCoordinate(n.coord.lat, n.coord.lon),
			)
		}
	}

	rounded := util.RoundFloat(length, 3)
	key := roadKey{from: from.id, to: to.id, length: rounded}
	if _, ok := p.edgeSet[key]; ok {
		return
	}
	p.edgeSet[key] = struct{}{}
	if !info.oneWay {
		p.edgeSet[roadKey{from: to.id, to: from.id, length: rounded}] = struct{}{}
	}

	ls = simplify.DouglasPeucker(simplifyThreshold).LineString(ls)

	p.vertices[from.id] = from.coord
	p.vertices[to.id] = to.coord

	p.roads = append(p.roads, Road{
		ID:       int64(len(p.roads) + 1),
		WayID:    int64(way.ID),
		Source:   from.id,
		Target:   to.id,
		Name:     name,
		Highway:  highway,
		Length:   length,
		OneWay:   info.oneWay,
		Geometry: ls,
	})
}

func (p *OsmParser) network() *RoadNetwork {
	vertices := make([]Vertex, 0, len(p.vertices))
	for id, coord := range p.vertices {
		vertices = append(vertices, Vertex{ID: id, Lat: coord.lat, Lon: coord.lon})
	}
	sort.Slice(vertices, func(i, j int) bool {
		return vertices[i].ID < vertices[j].ID
	})
	return &RoadNetwork{Vertices: vertices, Roads: p.roads}
}

func (p *OsmParser) isJunctionNode(nodeID int64) bool {
	return p.wayNodeMap[nodeID] == JUNCTION_NODE
}

func acceptOsmWay(way *osm.Way) bool {
	highway := way.Tags.Find("highway")
	junction := way.Tags.Find("junction")
	if highway != "" {
		if _, ok := acceptedHighway[highway]; ok {
			return true
		}
	} else if junction != "" {
		return true
	}
	return false
}

func isRestricted(value string) bool {
	return value == "no" || value == "restricted"
}

func wayDirection(way *osm.Way) wayInfo {
	forwardRestricted := isRestricted(way.Tags.Find("vehicle:forward")) ||
		isRestricted(way.Tags.Find("motor_vehicle:forward"))
	backwardRestricted := isRestricted(way.Tags.Find("vehicle:backward")) ||
		isRestricted(way.Tags.Find("motor_vehicle:backward"))

	info := wayInfo{forward: true}
	switch way.Tags.Find("oneway") {
	case "yes", "true", "1":
		info.oneWay = true
	case "-1", "reverse":
		info.oneWay = true
		info.forward = false
	case "no", "false", "0":
	default:
		junction := way.Tags.Find("junction")
		if junction == "roundabout" || junction == "circular" {
			info.oneWay = true
		}
	}

	if forwardRestricted {
		info.oneWay = true
		info.forward = false
	} else if backwardRestricted {
		info.oneWay = true
	}
	return info
}
