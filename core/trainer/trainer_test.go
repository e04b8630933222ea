package trainer

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/ridefair/config"
	"github.com/kilianp07/ridefair/core/generator"
	"github.com/kilianp07/ridefair/core/model"
	"github.com/kilianp07/ridefair/core/predict"
)

func defaultCfg() config.TrainingConfig {
	var cfg config.TrainingConfig
	cfg.SetDefaults()
	return cfg
}

func trainedService(t *testing.T) *predict.Service {
	t.Helper()
	cfg := defaultCfg()
	b, err := Train(generator.New(cfg).Generate(cfg.RecordCount), cfg)
	require.NoError(t, err)
	s, err := predict.New(b)
	require.NoError(t, err)
	return s
}

func TestTrainedPriceNearFormula(t *testing.T) {
	s := trainedService(t)
	res, err := s.PredictPrice(5, 9, false)
	require.NoError(t, err)
	// peak weekday fare is 119; the linear fit also absorbs scam rides
	assert.InDelta(t, 119, res.FairPrice, 30)

	longer, err := s.PredictPrice(10, 9, false)
	require.NoError(t, err)
	assert.Greater(t, longer.FairPrice, res.FairPrice)
	weekend, err := s.PredictPrice(5, 9, true)
	require.NoError(t, err)
	assert.Greater(t, weekend.FairPrice, res.FairPrice)
}

func TestTrainedScamVerdicts(t *testing.T) {
	s := trainedService(t)
	res, err := s.DetectScam(5, 300)
	require.NoError(t, err)
	assert.Equal(t, predict.VerdictScam, res.Verdict)
	assert.Greater(t, res.ScamProbability, 50.0)

	res, err = s.DetectScam(5, 90)
	require.NoError(t, err)
	assert.Equal(t, predict.VerdictFair, res.Verdict)
	assert.Less(t, res.ScamProbability, 50.0)
}

func TestTrainedHotspotsNearZones(t *testing.T) {
	s := trainedService(t)
	hs := s.ListHotspots()
	require.Len(t, hs, 3)
	for _, z := range config.DefaultZones {
		best := math.Inf(1)
		for _, h := range hs {
			best = math.Min(best, math.Hypot(h.Lat-z.Lat, h.Lon-z.Lon))
		}
		assert.Less(t, best, 0.005, "zone %s", z.Name)
	}
}

func TestTrainDeterministicHotspots(t *testing.T) {
	cfg := defaultCfg()
	recs := generator.New(cfg).Generate(500)
	a, err := Train(recs, cfg)
	require.NoError(t, err)
	b, err := Train(recs, cfg)
	require.NoError(t, err)
	assert.Equal(t, a.HotspotModel.Centers, b.HotspotModel.Centers)
	assert.Equal(t, a.PriceModel, b.PriceModel)
	assert.NotEqual(t, a.Meta.RunID, b.Meta.RunID)
}

func TestTrainInvalidData(t *testing.T) {
	cfg := defaultCfg()
	good := generator.New(cfg).Generate(50)

	allNaN := append([]model.RideRecord(nil), good...)
	for i := range allNaN {
		allNaN[i].PricePaid = math.NaN()
	}
	oneInf := append([]model.RideRecord(nil), good...)
	oneInf[3].Latitude = math.Inf(1)
	noScam := append([]model.RideRecord(nil), good...)
	for i := range noScam {
		noScam[i].IsScam = false
	}

	cases := map[string][]model.RideRecord{
		"empty":          nil,
		"column all NaN": allNaN,
		"one infinite":   oneInf,
		"single class":   noScam,
		"fewer than k":   {good[0], good[1]},
	}
	for name, recs := range cases {
		t.Run(name, func(t *testing.T) {
			b, err := Train(recs, cfg)
			if !errors.Is(err, ErrTrainingDataInvalid) {
				t.Fatalf("expected ErrTrainingDataInvalid, got %v", err)
			}
			if b != nil {
				t.Fatalf("expected no bundle")
			}
		})
	}
}
