package adapter

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/movefuzz/movefuzz/pkg/types"
)

// ParseArgValues parses a campaign's literal CLI arguments (the --args
// flag, adapter.Config.Args) into typed Move Values an Input can carry.
// Each literal is "KIND:VALUE", e.g. "u64:42", "bool:true",
// "address:0x2", or "vector<u8>:1,2,3".
func ParseArgValues(args []string) ([]types.Value, error) {
	if len(args) == 0 {
		return nil, nil
	}
	out := make([]types.Value, 0, len(args))
	for _, a := range args {
		v, err := parseArgValue(a)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func parseArgValue(s string) (types.Value, error) {
	kindStr, literal, ok := strings.Cut(s, ":")
	if !ok {
		return types.Value{}, fmt.Errorf("arg %q: expected KIND:VALUE", s)
	}
	return parseTypedLiteral(kindStr, literal)
}

func parseTypedLiteral(kindStr, literal string) (types.Value, error) {
	if strings.HasPrefix(kindStr, "vector<") && strings.HasSuffix(kindStr, ">") {
		elemKindStr := kindStr[len("vector<") : len(kindStr)-1]
		elemKind, err := primitiveKind(elemKindStr)
		if err != nil {
			return types.Value{}, err
		}

		var elems []types.Value
		for _, part := range strings.Split(literal, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			ev, err := parseTypedLiteral(elemKindStr, part)
			if err != nil {
				return types.Value{}, err
			}
			elems = append(elems, ev)
		}
		return types.Value{Kind: types.KindVector, Vector: elems, ElemKind: elemKind}, nil
	}

	kind, err := primitiveKind(kindStr)
	if err != nil {
		return types.Value{}, err
	}

	switch kind {
	case types.KindBool:
		b, err := strconv.ParseBool(literal)
		if err != nil {
			return types.Value{}, fmt.Errorf("parse bool %q: %w", literal, err)
		}
		return types.Value{Kind: kind, Bool: b}, nil
	case types.KindAddress:
		addr, err := types.ParseAddress(literal)
		if err != nil {
			return types.Value{}, err
		}
		return types.Value{Kind: kind, Address: addr}, nil
	default:
		n, err := parseBigUint(literal)
		if err != nil {
			return types.Value{}, err
		}
		return types.Value{Kind: kind, Int: n}, nil
	}
}

func primitiveKind(s string) (types.Kind, error) {
	switch s {
	case "u8":
		return types.KindU8, nil
	case "u16":
		return types.KindU16, nil
	case "u32":
		return types.KindU32, nil
	case "u64":
		return types.KindU64, nil
	case "u128":
		return types.KindU128, nil
	case "u256":
		return types.KindU256, nil
	case "bool":
		return types.KindBool, nil
	case "address":
		return types.KindAddress, nil
	default:
		return 0, fmt.Errorf("unrecognized argument kind %q", s)
	}
}

// parseBigUint decodes a decimal or 0x-prefixed literal into a BigUint,
// going through math/big only to get a correctly-sized byte string: the
// BigUint type itself stays the minimal little-endian fixed-width
// representation the mutator and executor share.
func parseBigUint(literal string) (*types.BigUint, error) {
	n := new(big.Int)
	if _, ok := n.SetString(literal, 0); !ok {
		return nil, fmt.Errorf("invalid integer literal %q", literal)
	}
	if n.Sign() < 0 {
		return nil, fmt.Errorf("literal %q is negative, Move integers are unsigned", literal)
	}

	be := n.Bytes()
	le := make([]byte, len(be))
	for i, b := range be {
		le[len(be)-1-i] = b
	}
	return types.BigUintFromBytes(le), nil
}
