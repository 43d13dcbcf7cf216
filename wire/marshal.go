package wire

import "encoding/json"

func marshalPair(a, b string) ([]byte, error) {
	return json.Marshal([2]string{a, b})
}
