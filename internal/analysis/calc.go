package analysis

import (
	"sanket-signals/internal/analysis/indicators"
	"sanket-signals/internal/errors"
	"sanket-signals/internal/models"
)

// Calc threads the first indicator failure through a model pipeline so that
// each stage can be written as a single expression.
type Calc struct {
	model models.ModelName
	n     int
	err   error
}

// NewCalc creates a Calc for series of length n.
func NewCalc(model models.ModelName, n int) *Calc {
	return &Calc{model: model, n: n}
}

// Series returns a receiver for one indicator call of stage. The receiver
// returns the series, or an all-NaN series after recording the error.
//
//	rsi := c.Series("rsi")(indicators.RSI(close, 14))
func (c *Calc) Series(stage string) func([]float64, error) []float64 {
	return func(v []float64, err error) []float64 {
		if err != nil {
			c.Fail(stage, err)
			return indicators.NaN(c.n)
		}
		return v
	}
}

// Fail records a failure that did not come from an indicator call.
func (c *Calc) Fail(stage string, err error) {
	if c.err == nil {
		c.err = errors.NewCalcError(string(c.model), stage, err)
	}
}

// Err returns the first recorded failure.
func (c *Calc) Err() error {
	return c.err
}
