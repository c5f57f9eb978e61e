package client

import "churn-console/internal/common/validation"

// risk_level is not an enum; unknown levels render with the default profile.
const predictionSchema = `{
  "type": "object",
  "required": ["churn_probability", "churn_prediction", "risk_level", "confidence"],
  "properties": {
    "churn_probability": {"type": "number", "minimum": 0, "maximum": 1},
    "churn_prediction": {"type": "integer", "enum": [0, 1]},
    "risk_level": {"type": "string"},
    "confidence": {"type": "number", "minimum": 0, "maximum": 1}
  }
}`

const batchSchema = `{
  "type": "object",
  "required": ["predictions", "total_customers", "high_risk_count"],
  "properties": {
    "predictions": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["churn_probability", "churn_prediction", "risk_level", "confidence"],
        "properties": {
          "churn_probability": {"type": "number", "minimum": 0, "maximum": 1},
          "churn_prediction": {"type": "integer", "enum": [0, 1]},
          "risk_level": {"type": "string"},
          "confidence": {"type": "number", "minimum": 0, "maximum": 1}
        }
      }
    },
    "total_customers": {"type": "integer", "minimum": 0},
    "high_risk_count": {"type": "integer", "minimum": 0},
    "processing_time_ms": {"type": "number"}
  }
}`

var (
	predictionContract = validation.MustDocumentValidator(predictionSchema)
	batchContract      = validation.MustDocumentValidator(batchSchema)
)
