package ai

import "math"

// varianceFloor keeps confidence intervals honest on tiny samples and
// on degenerate all-equal outcomes.
const varianceFloor = 0.0025

// actionStats accumulates rollout values for one root action
type actionStats struct {
	visits int
	sum    float64
	sumSq  float64
}

func (s *actionStats) add(v float64) {
	s.visits++
	s.sum += v
	s.sumSq += v * v
}

func (s *actionStats) merge(o actionStats) {
	s.visits += o.visits
	s.sum += o.sum
	s.sumSq += o.sumSq
}

// Mean returns the average normalized value
func (s *actionStats) Mean() float64 {
	if s.visits == 0 {
		return 0
	}
	return s.sum / float64(s.visits)
}

// Variance returns the sample variance, floored so a handful of
// identical rollouts does not report false certainty
func (s *actionStats) Variance() float64 {
	if s.visits < 2 {
		return varianceFloor
	}
	mean := s.Mean()
	v := (s.sumSq - float64(s.visits)*mean*mean) / float64(s.visits-1)
	if v < varianceFloor {
		return varianceFloor
	}
	return v
}

// StdErr returns the standard error of the mean
func (s *actionStats) StdErr() float64 {
	if s.visits == 0 {
		return math.Sqrt(varianceFloor)
	}
	return math.Sqrt(s.Variance() / float64(s.visits))
}

// CI95 returns the 95% confidence interval for the mean
func (s *actionStats) CI95() (low, high float64) {
	mean := s.Mean()
	margin := 1.96 * s.StdErr()
	return mean - margin, mean + margin
}
