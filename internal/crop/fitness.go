package crop

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ReferencePressure is the optimum used for P; the reference data carries no pressure.
const ReferencePressure = 1013.0

// ErrNoCrops is returned when there is nothing to score against.
var ErrNoCrops = errors.New("no crops to score")

// Vars holds one number per sensor variable.
type Vars struct {
	T    float64 `yaml:"T" json:"T"`
	H    float64 `yaml:"H" json:"H"`
	P    float64 `yaml:"P" json:"P"`
	TAvg float64 `yaml:"T_avg" json:"T_avg"`
	AP   float64 `yaml:"AP" json:"AP"`
	PH   float64 `yaml:"pH" json:"pH"`
}

func (v Vars) list() [6]float64 {
	return [6]float64{v.T, v.H, v.P, v.TAvg, v.AP, v.PH}
}

// Params are the per-variable spreads and weights of the fitness model.
// Weights scale sensitivity and need not sum to one.
type Params struct {
	Sigma  Vars `yaml:"sigmas" json:"sigmas"`
	Weight Vars `yaml:"weights" json:"weights"`
}

// DefaultParams returns the stock spread and weight tables.
func DefaultParams() Params {
	return Params{
		Sigma:  Vars{T: 2.0, H: 10.0, P: 10.0, TAvg: 2.0, AP: 20.0, PH: 0.5},
		Weight: Vars{T: 0.35, H: 0.30, P: 0.05, TAvg: 0.15, AP: 0.10, PH: 0.05},
	}
}

// Validate requires every sigma to be positive and every weight non-negative.
func (p Params) Validate() error {
	sigmas := p.Sigma.list()
	weights := p.Weight.list()
	for i, key := range SensorKeys {
		if err := validate.Var(sigmas[i], "gt=0"); err != nil {
			return fmt.Errorf("sigma %s must be positive, got %v", key, sigmas[i])
		}
		if err := validate.Var(weights[i], "gte=0"); err != nil {
			return fmt.Errorf("weight %s must not be negative, got %v", key, weights[i])
		}
	}
	return nil
}

// Fitness is the weighted Gaussian similarity between a sensor vector and a crop's
// optimal point: exp(-Σ w·(s-o)²/(2σ²)). It is 1 only on an exact match.
func Fitness(sensors SensorVector, opt Optimal, p Params) (float64, error) {
	s, err := sensors.values()
	if err != nil {
		return 0, err
	}
	return fitness(s, opt, p), nil
}

func fitness(s Vars, opt Optimal, p Params) float64 {
	target := Vars{
		T:    opt.Temperature,
		H:    opt.Humidity,
		P:    ReferencePressure,
		TAvg: opt.Temperature,
		AP:   opt.Rainfall,
		PH:   opt.PH,
	}

	obs := s.list()
	ref := target.list()
	sigma := p.Sigma.list()
	weight := p.Weight.list()

	var exponent float64
	for i := range obs {
		d := obs[i] - ref[i]
		exponent += weight[i] * d * d / (2 * sigma[i] * sigma[i])
	}
	return math.Exp(-exponent)
}

// Score is one crop's fitness.
type Score struct {
	Crop  string  `json:"crop"`
	Score float64 `json:"score"`
}

// Recommendation is the winning crop plus the full ranking.
type Recommendation struct {
	Crop   string  `json:"crop"`
	Score  float64 `json:"score"`
	Scores []Score `json:"scores"`
}

// Recommend scores every crop and picks the best. Crops are visited in lexicographic
// order and the first maximum wins, so ties go to the smallest label. Scores are
// ranked by score descending, then label ascending.
func Recommend(sensors SensorVector, optimal map[string]Optimal, p Params) (Recommendation, error) {
	if len(optimal) == 0 {
		return Recommendation{}, ErrNoCrops
	}
	s, err := sensors.values()
	if err != nil {
		return Recommendation{}, err
	}

	labels := make([]string, 0, len(optimal))
	for label := range optimal {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	rec := Recommendation{Score: -1, Scores: make([]Score, 0, len(labels))}
	for _, label := range labels {
		score := fitness(s, optimal[label], p)
		rec.Scores = append(rec.Scores, Score{Crop: label, Score: score})
		if score > rec.Score {
			rec.Crop = label
			rec.Score = score
		}
	}

	sort.SliceStable(rec.Scores, func(i, j int) bool {
		return rec.Scores[i].Score > rec.Scores[j].Score
	})
	return rec, nil
}
