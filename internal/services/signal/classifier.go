package signal

import "marketpulse/internal/domain/signal"

const DefaultCorrelationThreshold = 0.3

// Classifier maps spike flags and correlation to an action. Rules are
// evaluated in order and the first match wins:
//
//	positive spike and corr > threshold  -> Momentum trade
//	negative spike and corr > threshold  -> Potential exit
//	any spike and corr <= 0              -> Mixed signal
//	otherwise                            -> no signal
//
// A spike with 0 < corr <= threshold falls through to no signal.
type Classifier struct {
	threshold float64
}

// NewClassifier creates a classifier; a non-positive threshold means 0.3
func NewClassifier(threshold float64) *Classifier {
	if threshold <= 0 {
		threshold = DefaultCorrelationThreshold
	}
	return &Classifier{threshold: threshold}
}

// Classify returns the action for one day
func (c *Classifier) Classify(positiveSpike, negativeSpike bool, correlation float64) signal.Action {
	switch {
	case positiveSpike && correlation > c.threshold:
		return signal.ActionMomentumTrade
	case negativeSpike && correlation > c.threshold:
		return signal.ActionPotentialExit
	case (positiveSpike || negativeSpike) && correlation <= 0:
		return signal.ActionMixedSignal
	default:
		return signal.ActionNone
	}
}
