package transport

import (
	"github.com/UnendingLoop/PhotoApp/internal/model"
)

func errorCodeDefiner(err error) int {
	switch model.KindOf(err) {
	case model.KindCaller:
		return 400
	case model.KindNotFound:
		return 404
	default:
		return 500
	}
}

// nonNil - пустой список отдаётся как [], а не null
func nonNil[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return list
}
