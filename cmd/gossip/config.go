package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/vertex-lab/gossip/pkg/utils/logger"
	"github.com/vertex-lab/gossip/pkg/utils/redisutils"
)

const (
	StoreMemory string = "memory"
	StoreRedis  string = "redis"
)

// The configuration parameters for a simulation run.
type Config struct {
	Log       *logger.Aggregate
	LogWriter io.Writer

	EdgeList    string // path of the edge list
	FollowLists string // path of a file with one JSON nostr event per line
	SpreadCSV   string // path of the CSV output, empty to skip it

	MaxSteps  int
	NumTrials int
	TopN      int
	Workers   int
	Seed      int64

	GraphStore       string
	RedisAddr        string
	RedisBatchSize   int
	VerifySignatures bool
	MetricsAddr      string
}

// NewConfig() returns a config with default parameters.
func NewConfig() *Config {
	return &Config{
		LogWriter:      os.Stdout,
		MaxSteps:       5,
		NumTrials:      50,
		TopN:           10,
		Workers:        1,
		Seed:           time.Now().UnixNano(),
		GraphStore:     StoreMemory,
		RedisAddr:      redisutils.ProdAddr,
		RedisBatchSize: 1000,
	}
}

func (c *Config) Print() {
	fmt.Println("Config:")
	fmt.Printf("  LogWriter: %T\n", c.LogWriter)
	fmt.Printf("  EdgeList: %s\n", c.EdgeList)
	fmt.Printf("  FollowLists: %s\n", c.FollowLists)
	fmt.Printf("  SpreadCSV: %s\n", c.SpreadCSV)
	fmt.Printf("  MaxSteps: %d\n", c.MaxSteps)
	fmt.Printf("  NumTrials: %d\n", c.NumTrials)
	fmt.Printf("  TopN: %d\n", c.TopN)
	fmt.Printf("  Workers: %d\n", c.Workers)
	fmt.Printf("  Seed: %d\n", c.Seed)
	fmt.Printf("  GraphStore: %s\n", c.GraphStore)
	if c.GraphStore == StoreRedis {
		fmt.Printf("  RedisAddr: %s\n", c.RedisAddr)
		fmt.Printf("  RedisBatchSize: %d\n", c.RedisBatchSize)
	}
	fmt.Printf("  VerifySignatures: %t\n", c.VerifySignatures)
	fmt.Printf("  MetricsAddr: %s\n", c.MetricsAddr)
}

// LoadConfig() reads the optional .env file, then the variables from the enviroment,
// and parses them into a config struct.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env: %v", err)
	}

	var config = NewConfig()
	var err error

	for _, item := range os.Environ() {
		keyVal := strings.SplitN(item, "=", 2)
		key, val := keyVal[0], keyVal[1]

		switch key {
		case "LOGS":
			// LogWriter gets updated if a .log file is specified; otherwise it remains os.Stdout
			if strings.HasSuffix(val, ".log") {
				var file *os.File
				config.Log, file, err = logger.Init(val)
				if err != nil {
					return nil, fmt.Errorf("error opening file \"%v\": %v", val, err)
				}
				config.LogWriter = file
			}

		case "EDGE_LIST":
			config.EdgeList = val

		case "FOLLOW_LISTS":
			config.FollowLists = val

		case "SPREAD_CSV":
			config.SpreadCSV = val

		case "MAX_STEPS":
			config.MaxSteps, err = strconv.Atoi(val)
			if err != nil {
				return nil, fmt.Errorf("error parsing %v: %v", keyVal, err)
			}

		case "NUM_TRIALS":
			config.NumTrials, err = strconv.Atoi(val)
			if err != nil {
				return nil, fmt.Errorf("error parsing %v: %v", keyVal, err)
			}

		case "TOP_N":
			config.TopN, err = strconv.Atoi(val)
			if err != nil {
				return nil, fmt.Errorf("error parsing %v: %v", keyVal, err)
			}

		case "WORKERS":
			config.Workers, err = strconv.Atoi(val)
			if err != nil {
				return nil, fmt.Errorf("error parsing %v: %v", keyVal, err)
			}

		case "RNG_SEED":
			config.Seed, err = strconv.ParseInt(val, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("error parsing %v: %v", keyVal, err)
			}

		case "GRAPH_STORE":
			config.GraphStore = val

		case "REDIS_ADDR":
			config.RedisAddr = val

		case "REDIS_BATCH_SIZE":
			config.RedisBatchSize, err = strconv.Atoi(val)
			if err != nil {
				return nil, fmt.Errorf("error parsing %v: %v", keyVal, err)
			}

		case "VERIFY_SIGNATURES":
			config.VerifySignatures, err = strconv.ParseBool(val)
			if err != nil {
				return nil, fmt.Errorf("error parsing %v: %v", keyVal, err)
			}

		case "METRICS_ADDR":
			config.MetricsAddr = val
		}
	}

	if config.Log == nil {
		config.Log = logger.New(config.LogWriter)
	}

	if err := config.Validate(); err != nil {
		config.CloseLogs()
		return nil, err
	}

	return config, nil
}

// Validate() returns an error if the config can't describe a valid run.
func (c *Config) Validate() error {
	if (c.EdgeList == "") == (c.FollowLists == "") {
		return ErrNoInput
	}

	if c.MaxSteps < 0 {
		return fmt.Errorf("%w: MAX_STEPS = %d", ErrInvalidParameter, c.MaxSteps)
	}

	if c.NumTrials < 0 {
		return fmt.Errorf("%w: NUM_TRIALS = %d", ErrInvalidParameter, c.NumTrials)
	}

	if c.TopN < 0 {
		return fmt.Errorf("%w: TOP_N = %d", ErrInvalidParameter, c.TopN)
	}

	if c.RedisBatchSize <= 0 {
		return fmt.Errorf("%w: REDIS_BATCH_SIZE = %d", ErrInvalidParameter, c.RedisBatchSize)
	}

	if c.GraphStore != StoreMemory && c.GraphStore != StoreRedis {
		return fmt.Errorf("%w: GRAPH_STORE = %q", ErrInvalidParameter, c.GraphStore)
	}

	return nil
}

// CloseLogs() closes the config.LogWriter if that is a file.
func (c *Config) CloseLogs() {
	if file, ok := c.LogWriter.(*os.File); ok && file != os.Stdout {
		file.Close()
	}
}

//---------------------------------ERROR-CODES---------------------------------

var ErrNoInput = errors.New("exactly one of EDGE_LIST and FOLLOW_LISTS must be set")
var ErrInvalidParameter = errors.New("invalid parameter")
