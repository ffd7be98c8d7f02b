// Package classifier assigns semantic types to form fields. A naive Bayes
// model trained on previously successful submissions answers first; a
// substring heuristic is the authoritative fallback when the model is absent
// or unconfident.
package classifier

import (
	"bytes"
	"context"

	"github.com/navossoc/bayesian"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/elevateandautomate/turnclickstoclients/internal/model"
	"github.com/elevateandautomate/turnclickstoclients/internal/store"
)

const (
	// ConfidenceThreshold gates model predictions. Below it the heuristic
	// decides.
	ConfidenceThreshold = 0.7

	// RetrainInterval is how many processed contacts pass between rebuilds.
	RetrainInterval = 5

	// minExamples guards against retraining from a vacuous corpus.
	minExamples = 10
)

var classes = func() []bayesian.Class {
	out := make([]bayesian.Class, len(model.FieldTypes))
	for i, ft := range model.FieldTypes {
		out[i] = bayesian.Class(ft)
	}
	return out
}()

// Classifier predicts field types and accumulates training examples.
type Classifier struct {
	store store.Store

	threshold float64
	interval  int

	model          *bayesian.Classifier
	version        int
	sinceLastTrain int
}

// New creates a classifier backed by the given store. Call Load to pick up
// the persisted model.
func New(st store.Store) *Classifier {
	return &Classifier{store: st, threshold: ConfidenceThreshold, interval: RetrainInterval}
}

// Configure overrides the confidence threshold and retrain interval.
// Non-positive values keep the defaults.
func (c *Classifier) Configure(threshold float64, interval int) {
	if threshold > 0 {
		c.threshold = threshold
	}
	if interval > 0 {
		c.interval = interval
	}
}

// Load restores the latest persisted model, if any.
func (c *Classifier) Load(ctx context.Context) error {
	version, blob, err := c.store.LatestModel(ctx)
	if err != nil {
		return eris.Wrap(err, "classifier: load model")
	}
	if blob == nil {
		zap.L().Info("classifier: no trained model, heuristic only")
		return nil
	}
	m, err := bayesian.NewClassifierFromReader(bytes.NewReader(blob))
	if err != nil {
		return eris.Wrap(err, "classifier: decode model")
	}
	c.model = m
	c.version = version
	zap.L().Info("classifier: model loaded", zap.Int("version", version))
	return nil
}

// Predict returns the field type for the given attributes. The model answers
// when its top class clears the confidence threshold; otherwise the heuristic
// decides.
func (c *Classifier) Predict(attrs model.FieldAttributes) model.FieldType {
	if c.model != nil {
		scores, idx, _, err := c.model.SafeProbScores(tokens(attrs))
		if err == nil && scores[idx] >= c.threshold {
			return model.FieldType(c.model.Classes[idx])
		}
	}
	return Heuristic(attrs)
}

// PredictProba returns the model's probability per type. Without a trained
// model the heuristic's answer gets probability 1.
func (c *Classifier) PredictProba(attrs model.FieldAttributes) map[model.FieldType]float64 {
	out := make(map[model.FieldType]float64, len(model.FieldTypes))
	if c.model == nil {
		out[Heuristic(attrs)] = 1
		return out
	}
	scores, _, _, err := c.model.SafeProbScores(tokens(attrs))
	if err != nil {
		out[Heuristic(attrs)] = 1
		return out
	}
	for i, class := range c.model.Classes {
		out[model.FieldType(class)] = scores[i]
	}
	return out
}

// AddExample appends one labeled field to the training store.
func (c *Classifier) AddExample(ctx context.Context, attrs model.FieldAttributes, ft model.FieldType, sourceURL string, success bool) error {
	err := c.store.AppendFieldExample(ctx, model.FieldExample{
		Attributes: attrs.Lower(),
		FieldType:  ft,
		SourceURL:  sourceURL,
		Success:    success,
	})
	return eris.Wrap(err, "classifier: add example")
}

// NoteContactProcessed advances the retrain counter and rebuilds the model
// once enough contacts have passed.
func (c *Classifier) NoteContactProcessed(ctx context.Context) error {
	c.sinceLastTrain++
	if c.sinceLastTrain < c.interval {
		return nil
	}
	c.sinceLastTrain = 0
	return c.Retrain(ctx)
}

// Retrain rebuilds the model from all successful examples and persists it as
// a new version. Too small a corpus keeps the current model.
func (c *Classifier) Retrain(ctx context.Context) error {
	examples, err := c.store.ListFieldExamples(ctx, true)
	if err != nil {
		return eris.Wrap(err, "classifier: list examples")
	}
	if len(examples) < minExamples {
		zap.L().Debug("classifier: not enough examples to retrain",
			zap.Int("examples", len(examples)))
		return nil
	}

	m := bayesian.NewClassifier(classes...)
	for _, ex := range examples {
		m.Learn(tokens(ex.Attributes), bayesian.Class(ex.FieldType))
	}

	var buf bytes.Buffer
	if err := m.WriteTo(&buf); err != nil {
		return eris.Wrap(err, "classifier: encode model")
	}
	version, err := c.store.PutModel(ctx, buf.Bytes())
	if err != nil {
		return eris.Wrap(err, "classifier: persist model")
	}
	c.model = m
	c.version = version
	zap.L().Info("classifier: retrained",
		zap.Int("version", version), zap.Int("examples", len(examples)))
	return nil
}

// Version returns the persisted version of the active model, 0 when running
// heuristic-only.
func (c *Classifier) Version() int { return c.version }
