package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"runtime"
	"runtime/pprof"

	"github.com/goccy/go-graphviz"
	"github.com/sbinet/npyio"
	"github.com/tarstars/onnxtree/tensemble"
)

func decodeConfig(srcConfig string, out interface{}) {
	file, err := os.Open(srcConfig)
	if err != nil {
		log.Fatal(err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			log.Fatal(err)
		}
	}()

	decoder := json.NewDecoder(file)
	if err := decoder.Decode(out); err != nil {
		log.Fatal(err)
	}
}

// PredictConfig drives "predict": load a model description plus a feature
// matrix, run inference, and dump the result as .npy.
type PredictConfig struct {
	FilenameModel      string `json:"filename_model"`
	Kind               string `json:"kind"` // "classifier" or "regressor"
	FilenameFeatures   string `json:"filename_features"`
	FilenamePrediction string `json:"filename_prediction"`
	FilenameLabels     string `json:"filename_labels,omitempty"`
	Workers            int    `json:"workers"`
}

func predict(srcConfig string) {
	var cfg PredictConfig
	decodeConfig(srcConfig, &cfg)

	x, err := tensemble.LoadMatrixNpy(cfg.FilenameFeatures)
	if err != nil {
		log.Fatal(err)
	}

	var opts []tensemble.Option
	if cfg.Workers != 0 {
		opts = append(opts, tensemble.WithWorkers(cfg.Workers))
	}

	switch cfg.Kind {
	case "regressor":
		var attrs tensemble.RegressorAttributes
		decodeConfig(cfg.FilenameModel, &attrs)

		reg, err := tensemble.NewRegressor(attrs, opts...)
		if err != nil {
			log.Fatal(err)
		}
		out, err := reg.ComputeMatrix(x)
		if err != nil {
			log.Fatal(err)
		}
		writeMatrixNpy(cfg.FilenamePrediction, out)

	case "classifier":
		var attrs tensemble.ClassifierAttributes
		decodeConfig(cfg.FilenameModel, &attrs)

		clf, err := tensemble.NewClassifier(attrs, opts...)
		if err != nil {
			log.Fatal(err)
		}
		labels, scores, err := clf.ComputeMatrix(x)
		if err != nil {
			log.Fatal(err)
		}
		writeMatrixNpy(cfg.FilenamePrediction, scores)
		if cfg.FilenameLabels != "" {
			writeLabelsNpy(cfg.FilenameLabels, labels)
		}

	default:
		log.Fatalf("unknown kind %q: must be 'classifier' or 'regressor'", cfg.Kind)
	}
}

func writeMatrixNpy(path string, m *tensemble.Matrix) {
	dst, err := os.Create(path)
	if err != nil {
		log.Fatal(err)
	}
	defer func() {
		if err := dst.Close(); err != nil {
			log.Fatal(err)
		}
	}()
	if err := npyio.Write(dst, m.RawDense()); err != nil {
		log.Fatal(err)
	}
}

func writeLabelsNpy(path string, labels []int64) {
	dst, err := os.Create(path)
	if err != nil {
		log.Fatal(err)
	}
	defer func() {
		if err := dst.Close(); err != nil {
			log.Fatal(err)
		}
	}()
	if err := npyio.Write(dst, labels); err != nil {
		log.Fatal(err)
	}
}

// GraphConfig drives "graph": load a classifier or regressor model and
// render every tree to a single image file.
type GraphConfig struct {
	FilenameModel string `json:"filename_model"`
	Kind          string `json:"kind"`
	FigureType    string `json:"figure_type"`
	FilenamePic   string `json:"filename_picture"`
}

func graph(srcConfig string) {
	var cfg GraphConfig
	decodeConfig(srcConfig, &cfg)

	var ensemble *tensemble.Ensemble
	switch cfg.Kind {
	case "regressor":
		var attrs tensemble.RegressorAttributes
		decodeConfig(cfg.FilenameModel, &attrs)
		e, err := tensemble.BuildRegressor(attrs)
		if err != nil {
			log.Fatal(err)
		}
		ensemble = e
	case "classifier":
		var attrs tensemble.ClassifierAttributes
		decodeConfig(cfg.FilenameModel, &attrs)
		e, err := tensemble.BuildClassifier(attrs)
		if err != nil {
			log.Fatal(err)
		}
		ensemble = e
	default:
		log.Fatalf("unknown kind %q: must be 'classifier' or 'regressor'", cfg.Kind)
	}

	format := graphviz.SVG
	if cfg.FigureType == "png" {
		format = graphviz.PNG
	}
	if err := tensemble.RenderEnsembleFile(ensemble, format, cfg.FilenamePic); err != nil {
		log.Fatal(err)
	}
}

// DumpConfig drives "dump": print the ensemble's plain-text node listing,
// useful when a prediction looks wrong and the graph render isn't handy.
type DumpConfig struct {
	FilenameModel string `json:"filename_model"`
	Kind          string `json:"kind"`
}

func dump(srcConfig string) {
	var cfg DumpConfig
	decodeConfig(srcConfig, &cfg)

	var ensemble *tensemble.Ensemble
	switch cfg.Kind {
	case "regressor":
		var attrs tensemble.RegressorAttributes
		decodeConfig(cfg.FilenameModel, &attrs)
		e, err := tensemble.BuildRegressor(attrs)
		if err != nil {
			log.Fatal(err)
		}
		ensemble = e
	case "classifier":
		var attrs tensemble.ClassifierAttributes
		decodeConfig(cfg.FilenameModel, &attrs)
		e, err := tensemble.BuildClassifier(attrs)
		if err != nil {
			log.Fatal(err)
		}
		ensemble = e
	default:
		log.Fatalf("unknown kind %q: must be 'classifier' or 'regressor'", cfg.Kind)
	}

	log.Println(ensemble.DebugString())
}

func main() {
	runMode := flag.String("mode", "predict", "you can select either 'predict', 'graph' or 'dump' modes")
	config := flag.String("config", "tensemble_config.json", "a config file for the run of the program")
	memprofile := flag.String("memprofile", "", "write memory profile to `file`")

	flag.Parse()

	fn, ok := map[string]func(string){
		"predict": predict,
		"graph":   graph,
		"dump":    dump,
	}[*runMode]
	if !ok {
		log.Fatalf("unknown mode %q", *runMode)
	}
	fn(*config)

	if *memprofile != "" {
		f, err := os.Create(*memprofile)
		if err != nil {
			log.Fatal(err)
		}
		defer func() {
			if err := f.Close(); err != nil {
				log.Fatal(err)
			}
		}()
		runtime.GC()
		if err := pprof.WriteHeapProfile(f); err != nil {
			log.Fatal("could not write memory profile: ", err)
		}
	}
}
