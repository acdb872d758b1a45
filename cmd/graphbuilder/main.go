package main

import (
	"context"
	"flag"
	"os"

	"github.com/lintang-b-s/navroute/pkg/logger"
	"github.com/lintang-b-s/navroute/pkg/osmparser"
	"go.uber.org/zap"
)

var (
	mapFile = flag.String("in", "./data/map.osm.pbf", "openstreetmap pbf extract")
	outFile = flag.String("out", "./data/road_network.geojson", "output road network, bzip2 compressed when it ends in .bz2")
)

func main() {
	flag.Parse()
	logger, err := logger.New()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	f, err := os.Open(*mapFile)
	if err != nil {
		logger.Fatal("failed to open map file", zap.Error(err))
	}
	defer f.Close()

	network, err := osmparser.NewOSMParser(logger).Parse(context.Background(), f)
	if err != nil {
		logger.Fatal("failed to parse map file", zap.Error(err))
	}

	if err := network.WriteFile(*outFile); err != nil {
		logger.Fatal("failed to write road network", zap.Error(err))
	}
	logger.Info("road network written", zap.String("path", *outFile))
}
