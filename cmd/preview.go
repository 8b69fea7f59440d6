package cmd

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/abcsim/abcsim/abc"
)

// generationHistory is one recorded generation: its weighted distance sample
// and the acceptance rate realized while producing it.
type generationHistory struct {
	Sample         []abc.WeightedDistance
	AcceptanceRate float64
}

// previewCmd replays a recorded distance history through a configured
// schedule and prints the frozen per-generation trajectory.
var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Replay a recorded distance history through a schedule",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()

		if configPath == "" || distancesPath == "" {
			logrus.Fatalf("Both --config and --distances are required")
		}
		bundle, err := abc.LoadScheduleBundle(configPath)
		if err != nil {
			logrus.Fatalf("Loading schedule config: %v", err)
		}
		if err := bundle.Validate(); err != nil {
			logrus.Fatalf("Invalid schedule config: %v", err)
		}
		history, err := parseHistory(distancesPath)
		if err != nil {
			logrus.Fatalf("Reading distance history: %v", err)
		}
		if len(history) == 0 {
			logrus.Fatalf("Distance history is empty")
		}

		// A history of G generations lets us schedule generations 0..G:
		// each update consumes the previous generation's sample.
		maxPop := populations
		if maxPop <= 0 {
			maxPop = len(history) + 1
		}

		var schedule abc.Epsilon
		var cfg abc.AcceptorConfig
		if bundle.Epsilon.Policy == "temperature" {
			cfg, err = abc.ParseAcceptorConfig(bundle.Acceptor)
			if err != nil {
				logrus.Fatalf("Invalid acceptor config: %v", err)
			}
			schedule = abc.NewTemperatureFromConfig(bundle.Temperature)
		} else {
			schedule = abc.NewEpsilon(bundle.Epsilon)
		}

		noRecords := func() []abc.Record { return nil }
		sampleAt := func(t int) abc.DistanceGetter {
			return func() []abc.WeightedDistance { return history[t].Sample }
		}

		if err := schedule.Initialize(0, sampleAt(0), noRecords, maxPop, cfg); err != nil {
			logrus.Fatalf("Initialize failed: %v", err)
		}
		last := len(history)
		if last > maxPop-1 {
			last = maxPop - 1
		}
		for t := 1; t <= last; t++ {
			prev := history[t-1]
			if err := schedule.Update(t, sampleAt(t-1), noRecords, prev.AcceptanceRate, cfg); err != nil {
				logrus.Fatalf("Update for generation %d failed: %v", t, err)
			}
		}

		fmt.Println("generation\tvalue")
		for t := 0; t <= last; t++ {
			v, err := schedule.Eps(t)
			if err != nil {
				logrus.Fatalf("Lookup for generation %d failed: %v", t, err)
			}
			fmt.Printf("%d\t%.6g\n", t, v)
		}
	},
}

// parseHistory reads the recorded CSV: a header row, then
// generation,distance,weight,acceptance_rate rows. Generations must be
// contiguous from 0; the acceptance rate of a generation is taken from its
// last row.
func parseHistory(path string) ([]generationHistory, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening csv file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)

	// Skip header row
	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("reading csv header: %w", err)
	}

	var history []generationHistory
	row := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv at row %d: %w", row, err)
		}
		if len(record) < 4 {
			return nil, fmt.Errorf("row %d: expected 4 columns, got %d", row, len(record))
		}
		gen, err := strconv.Atoi(record[0])
		if err != nil {
			return nil, fmt.Errorf("invalid generation at row %d: %w", row, err)
		}
		distance, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid distance at row %d: %w", row, err)
		}
		weight, err := strconv.ParseFloat(record[2], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid weight at row %d: %w", row, err)
		}
		rate, err := strconv.ParseFloat(record[3], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid acceptance rate at row %d: %w", row, err)
		}

		if gen == len(history) {
			history = append(history, generationHistory{})
		} else if gen != len(history)-1 {
			return nil, fmt.Errorf("row %d: generation %d out of order", row, gen)
		}
		h := &history[len(history)-1]
		h.Sample = append(h.Sample, abc.WeightedDistance{Distance: distance, Weight: weight})
		h.AcceptanceRate = rate
		row++
	}
	return history, nil
}
