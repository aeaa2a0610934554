package timeline

import (
	"time"

	"gonum.org/v1/gonum/stat"

	"marketpulse/internal/domain/sentiment"
)

// SpikeConfig holds the standard deviation multipliers of the thresholds
type SpikeConfig struct {
	PositiveK float64
	NegativeK float64
}

// Thresholds returns mean(rolling) + std*posK and mean(rolling) - std*negK
// using the sample standard deviation; fewer than two values give std 0.
func Thresholds(rolling []float64, cfg SpikeConfig) (positive, negative float64) {
	switch len(rolling) {
	case 0:
		return 0, 0
	case 1:
		return rolling[0], rolling[0]
	}
	mean, std := stat.MeanStdDev(rolling, nil)
	return mean + std*cfg.PositiveK, mean - std*cfg.NegativeK
}

// DetectSpikes flags observed days whose rolling average crosses the
// thresholds. Filled days never spike.
func DetectSpikes(points []sentiment.TimelinePoint, cfg SpikeConfig) sentiment.Timeline {
	rolling := make([]float64, len(points))
	for i, p := range points {
		rolling[i] = p.RollingAvg
	}
	pos, neg := Thresholds(rolling, cfg)

	out := make([]sentiment.TimelinePoint, len(points))
	for i, p := range points {
		p.PositiveSpike = !p.IsFilled && p.RollingAvg > pos
		p.NegativeSpike = !p.IsFilled && !p.PositiveSpike && p.RollingAvg < neg
		out[i] = p
	}
	return sentiment.Timeline{
		Points:            out,
		PositiveThreshold: pos,
		NegativeThreshold: neg,
	}
}

// Builder runs gap filling and spike detection with one configuration
type Builder struct {
	gap   GapFillConfig
	spike SpikeConfig
}

// NewBuilder creates a timeline builder; zero multipliers default to 1.5
func NewBuilder(gap GapFillConfig, spike SpikeConfig) *Builder {
	if spike.PositiveK <= 0 {
		spike.PositiveK = DefaultSpikeK
	}
	if spike.NegativeK <= 0 {
		spike.NegativeK = DefaultSpikeK
	}
	return &Builder{gap: gap.withDefaults(), spike: spike}
}

// Build returns the gap-filled timeline with spikes and thresholds
func (b *Builder) Build(obs []Observation, start time.Time) (sentiment.Timeline, error) {
	points, err := GapFill(obs, start, b.gap)
	if err != nil {
		return sentiment.Timeline{}, err
	}
	return DetectSpikes(points, b.spike), nil
}
