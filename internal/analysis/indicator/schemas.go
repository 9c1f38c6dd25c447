package indicator

const periodOnlySchema = `{
	"type": "object",
	"properties": {
		"period": {"type": "integer", "minimum": 1, "maximum": 1000}
	},
	"required": ["period"],
	"additionalProperties": false
}`

// paramSchemas 是各指标参数的 JSON Schema，ParseParams 用其校验外部输入。
var paramSchemas = map[Kind]string{
	KindSMA: periodOnlySchema,
	KindWMA: periodOnlySchema,
	KindEMA: periodOnlySchema,
	KindRSI: periodOnlySchema,
	KindATR: periodOnlySchema,
	KindADX: periodOnlySchema,
	KindCCI: periodOnlySchema,
	KindCMF: periodOnlySchema,
	KindMACD: `{
		"type": "object",
		"properties": {
			"fast_period": {"type": "integer", "minimum": 1},
			"slow_period": {"type": "integer", "minimum": 2},
			"signal_period": {"type": "integer", "minimum": 1}
		},
		"required": ["fast_period", "slow_period", "signal_period"],
		"additionalProperties": false
	}`,
	KindBollinger: `{
		"type": "object",
		"properties": {
			"period": {"type": "integer", "minimum": 1},
			"std_dev": {"type": "number", "exclusiveMinimum": 0}
		},
		"required": ["period", "std_dev"],
		"additionalProperties": false
	}`,
	KindStochastic: `{
		"type": "object",
		"properties": {
			"k_period": {"type": "integer", "minimum": 1},
			"d_period": {"type": "integer", "minimum": 1},
			"smooth": {"type": "integer", "minimum": 1}
		},
		"required": ["k_period", "d_period", "smooth"],
		"additionalProperties": false
	}`,
	KindOBV: `{
		"type": "object",
		"additionalProperties": false
	}`,
	KindAO: `{
		"type": "object",
		"properties": {
			"fast_period": {"type": "integer", "minimum": 1},
			"slow_period": {"type": "integer", "minimum": 2}
		},
		"required": ["fast_period", "slow_period"],
		"additionalProperties": false
	}`,
}
