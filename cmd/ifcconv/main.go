package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bldgtool/ifcconv/converter"
	"github.com/bldgtool/ifcconv/ifc"
	"github.com/bldgtool/ifcconv/step"
	"github.com/qmuntal/gltf"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

type config struct {
	Importer struct {
		IncludeSpaces      bool `yaml:"include_spaces"`
		IncludeAnnotations bool `yaml:"include_annotations"`
		CircleSegments     int  `yaml:"circle_segments"`
	} `yaml:"importer"`
	Output struct {
		Scale   float64 `yaml:"scale"`
		Unlit   bool    `yaml:"unlit"`
		Flatten bool    `yaml:"flatten"`
	} `yaml:"output"`
}

func loadConfig(path string) (*config, error) {
	var cfg config
	if path == "" {
		return &cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}

func defaultOutputFile(input string) string {
	ext := filepath.Ext(input)
	return input[0:len(input)-len(ext)] + ".glb"
}

func dumpNode(n *ifc.Node, doc *ifc.Document, indent string) {
	label := n.Name
	if n.Element != nil && n.Element.Type != "" {
		label += " <" + n.Element.Type + ">"
	}
	if n.Elevation != nil {
		label += fmt.Sprintf(" @%.2fm", *n.Elevation)
	}
	fmt.Printf("%s%s\n", indent, label)
	for _, mi := range n.MeshIndexes {
		mesh := doc.Meshes[mi]
		fmt.Printf("%s  * %s (%d verts, %d faces, material %s)\n",
			indent, mesh.Name, len(mesh.Vertexes), len(mesh.Faces),
			doc.Materials[mesh.Material].Name)
	}
	// Storeys come out in elevation order, everything else in file order.
	children := append([]*ifc.Node{}, n.Children...)
	sort.SliceStable(children, func(i, j int) bool {
		a, b := children[i].Elevation, children[j].Elevation
		return a != nil && b != nil && *a < *b
	})
	for _, c := range children {
		dumpNode(c, doc, indent+"  ")
	}
}

func run() error {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] input.ifc [output.glb]\n", os.Args[0])
		flag.PrintDefaults()
	}
	dump := flag.Bool("dump", false, "print the spatial hierarchy instead of converting")
	scale := flag.Float64("scale", 1.0, "output scale factor")
	unlit := flag.Bool("unlit", false, "unlit all materials")
	flatten := flag.Bool("flatten", false, "drop the spatial hierarchy in the output")
	spaces := flag.Bool("spaces", false, "include room volume geometry")
	annotations := flag.Bool("annotations", false, "include annotation geometry")
	configFile := flag.String("config", "", "YAML config file")
	logLevel := flag.String("log", "info", "log level (debug, info, warn, error)")
	logFile := flag.String("logfile", "", "also log to this file (rotated)")
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		return fmt.Errorf("no input file")
	}
	input := flag.Arg(0)
	output := defaultOutputFile(input)
	if flag.NArg() > 1 {
		output = flag.Arg(1)
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		return err
	}
	// Explicit flags override the config file.
	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if set["scale"] {
		cfg.Output.Scale = *scale
	}
	if set["unlit"] {
		cfg.Output.Unlit = *unlit
	}
	if set["flatten"] {
		cfg.Output.Flatten = *flatten
	}
	if set["spaces"] {
		cfg.Importer.IncludeSpaces = *spaces
	}
	if set["annotations"] {
		cfg.Importer.IncludeAnnotations = *annotations
	}
	if cfg.Output.Scale == 0 {
		cfg.Output.Scale = 1.0
	}

	log := newLogger(*logLevel, *logFile)
	defer log.Sync()

	opts := ifc.DefaultOptions()
	opts.SkipSpaceRepresentations = !cfg.Importer.IncludeSpaces
	opts.SkipAnnotations = !cfg.Importer.IncludeAnnotations
	if cfg.Importer.CircleSegments > 0 {
		opts.CircleSegments = cfg.Importer.CircleSegments
	}
	opts.Logger = log

	importer := ifc.NewImporter(step.Engine{}, opts)
	doc, err := importer.Load(input)
	if err != nil {
		return err
	}
	log.Info("loaded model", zap.String("input", input),
		zap.Int("meshes", len(doc.Meshes)), zap.Int("materials", len(doc.Materials)))

	if *dump {
		dumpNode(doc.Root, doc, "")
		return nil
	}

	conv := converter.NewIFCToGLTFConverter(&converter.IFCToGLTFOption{
		Scale:           float32(cfg.Output.Scale),
		ForceUnlit:      cfg.Output.Unlit,
		IgnoreHierarchy: cfg.Output.Flatten,
	})
	gltfdoc, err := conv.Convert(doc)
	if err != nil {
		return err
	}
	if strings.ToLower(filepath.Ext(output)) == ".gltf" {
		err = gltf.Save(gltfdoc, output)
	} else {
		err = gltf.SaveBinary(gltfdoc, output)
	}
	if err != nil {
		return err
	}
	log.Info("wrote output", zap.String("output", output))
	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
