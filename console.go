package main

import (
	"errors"
	"strconv"
	"strings"

	"github.com/seqsense/pcgol/mat"

	"github.com/seqsense/pcreg/internal/strutil"
	"github.com/seqsense/pcreg/registration"
)

type console struct {
	s *session
}

var errArgumentNumber = errors.New("invalid number of arguments")
var errInvalidCommand = errors.New("invalid command")
var errNoIntrinsic = errors.New("camera intrinsic is not loaded")

var consoleCommands = map[string]func(s *session, args []float32) ([][]float32, error){
	"type": func(s *session, args []float32) ([][]float32, error) {
		switch len(args) {
		case 0:
			return [][]float32{{float32(s.estimation.EstimationType())}}, nil
		default:
			return nil, errArgumentNumber
		}
	},
	"estimation": func(s *session, args []float32) ([][]float32, error) {
		switch len(args) {
		case 0:
			return [][]float32{{float32(s.estimation.EstimationType())}}, nil
		case 1:
			if err := s.SetEstimation(registration.TransformationEstimationType(args[0])); err != nil {
				return nil, err
			}
			return [][]float32{{float32(s.estimation.EstimationType())}}, nil
		default:
			return nil, errArgumentNumber
		}
	},
	"rmse": func(s *session, args []float32) ([][]float32, error) {
		switch len(args) {
		case 0:
			rmse, err := s.RMSE()
			if err != nil {
				return nil, err
			}
			return [][]float32{{rmse}}, nil
		default:
			return nil, errArgumentNumber
		}
	},
	"transform": func(s *session, args []float32) ([][]float32, error) {
		switch len(args) {
		case 0:
			m, err := s.Compute()
			if err != nil {
				return nil, err
			}
			return matRows(m), nil
		default:
			return nil, errArgumentNumber
		}
	},
	"apply": func(s *session, args []float32) ([][]float32, error) {
		switch len(args) {
		case 0:
			if err := s.Apply(); err != nil {
				return nil, err
			}
			rmse, err := s.RMSE()
			if err != nil {
				return nil, err
			}
			return [][]float32{{rmse}}, nil
		default:
			return nil, errArgumentNumber
		}
	},
	"undo": func(s *session, args []float32) ([][]float32, error) {
		switch len(args) {
		case 0:
			if err := s.Undo(); err != nil {
				return nil, err
			}
			rmse, err := s.RMSE()
			if err != nil {
				return nil, err
			}
			return [][]float32{{rmse}}, nil
		default:
			return nil, errArgumentNumber
		}
	},
	"max_history": func(s *session, args []float32) ([][]float32, error) {
		switch len(args) {
		case 0:
			return [][]float32{{float32(s.history.MaxHistory())}}, nil
		case 1:
			s.history.SetMaxHistory(int(args[0]))
			return [][]float32{{float32(s.history.MaxHistory())}}, nil
		default:
			return nil, errArgumentNumber
		}
	},
	"applied": func(s *session, args []float32) ([][]float32, error) {
		switch len(args) {
		case 0:
			return matRows(s.applied), nil
		default:
			return nil, errArgumentNumber
		}
	},
	"intrinsic": func(s *session, args []float32) ([][]float32, error) {
		switch len(args) {
		case 0:
			if s.intrinsic == nil {
				return nil, errNoIntrinsic
			}
			fx, fy := s.intrinsic.FocalLength()
			cx, cy := s.intrinsic.PrincipalPoint()
			return [][]float32{
				{float32(s.intrinsic.Width), float32(s.intrinsic.Height)},
				{fx, fy, cx, cy, s.intrinsic.Skew()},
			}, nil
		default:
			return nil, errArgumentNumber
		}
	},
}

// matRows returns the matrix in row-major rows.
func matRows(m mat.Mat4) [][]float32 {
	out := make([][]float32, 4)
	for i := range out {
		out[i] = []float32{m[i], m[4+i], m[8+i], m[12+i]}
	}
	return out
}

func (c *console) Run(line string) (string, error) {
	args := strutil.SplitString(line, " \t", true)
	if len(args) == 0 {
		return "", nil
	}
	if strutil.WordLength(args[0], 0, "_") != len(args[0]) {
		return "", errInvalidCommand
	}
	fn, ok := consoleCommands[args[0]]
	if !ok {
		return "", errInvalidCommand
	}
	var argsFloat []float32
	for i := 1; i < len(args); i++ {
		f, err := strconv.ParseFloat(args[i], 32)
		if err != nil {
			return "", err
		}
		argsFloat = append(argsFloat, float32(f))
	}
	res, err := fn(c.s, argsFloat)
	if err != nil {
		return "", err
	}
	var resStr []string
	for _, vv := range res {
		var resLine []string
		for _, v := range vv {
			resLine = append(resLine, strconv.FormatFloat(float64(v), 'f', 6, 32))
		}
		resStr = append(resStr, strings.Join(resLine, " "))
	}
	return strings.Join(resStr, "\n"), nil
}
