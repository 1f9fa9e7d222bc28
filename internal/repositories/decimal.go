package repositories

import (
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// toDecimal128 converts a decimal amount to MongoDB's native decimal type.
func toDecimal128(d decimal.Decimal) primitive.Decimal128 {
	out, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}
	}
	return out
}

// fromDecimal128 converts a stored Decimal128 back to a decimal amount.
func fromDecimal128(v primitive.Decimal128) decimal.Decimal {
	out, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Zero
	}
	return out
}
