// Copyright (c) 2024 Paradigm4, Inc. All rights reserved.

package goscidb

import (
	"errors"
	"os"
	path "path/filepath"
	"strconv"
	"strings"
	"time"

	toml "github.com/BurntSushi/toml"
)

// LoadConnectionConfig returns a connection config loaded from the
// connections.toml file. By default, SCIDB_HOME (the toml file directory) is
// os.home/.scidb and SCIDB_DEFAULT_CONNECTION_NAME (the profile) is
// 'default'.
func LoadConnectionConfig() (*Config, error) {
	cfg := &Config{}
	profile := getConnectionProfile(os.Getenv("SCIDB_DEFAULT_CONNECTION_NAME"))
	configDir, err := getTomlFilePath(os.Getenv("SCIDB_HOME"))
	if err != nil {
		return nil, err
	}
	tomlFilePath := path.Join(configDir, "connections.toml")
	if err = validateFilePermission(tomlFilePath); err != nil {
		return nil, err
	}
	tomlInfo := make(map[string]interface{})
	if _, err = toml.DecodeFile(tomlFilePath, &tomlInfo); err != nil {
		return nil, err
	}
	connection, exist := tomlInfo[profile]
	if !exist {
		return nil, &SciDBError{
			Number:  ErrCodeFailedToFindProfileInToml,
			Message: errMsgFailedToFindProfileInToml,
		}
	}
	connectionConfig, ok := connection.(map[string]interface{})
	if !ok {
		return nil, &SciDBError{
			Number:  ErrCodeTomlFileParsingFailed,
			Message: errMsgFailedToParseTomlFile,
			MessageArgs: []interface{}{
				profile, connection,
			},
		}
	}
	if err = parseToml(cfg, connectionConfig); err != nil {
		return nil, err
	}
	if err = fillMissingConfigParameters(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseToml(cfg *Config, connection map[string]interface{}) error {
	var parsingErr error
	err := &SciDBError{
		Number:  ErrCodeTomlFileParsingFailed,
		Message: errMsgFailedToParseTomlFile,
	}
	for key, value := range connection {
		switch strings.ToLower(key) {
		case "user", "username":
			cfg.User, parsingErr = parseString(value)
			if parsingErr != nil {
				err.MessageArgs = []interface{}{key, value}
				return err
			}
		case "password":
			cfg.Password, parsingErr = parseString(value)
			if parsingErr != nil {
				err.MessageArgs = []interface{}{key, value}
				return err
			}
		case "scidb_user":
			cfg.SciDBUser, parsingErr = parseString(value)
			if parsingErr != nil {
				err.MessageArgs = []interface{}{key, value}
				return err
			}
		case "scidb_password":
			cfg.SciDBPassword, parsingErr = parseString(value)
			if parsingErr != nil {
				err.MessageArgs = []interface{}{key, value}
				return err
			}
		case "host":
			cfg.Host, parsingErr = parseString(value)
			if parsingErr != nil {
				err.MessageArgs = []interface{}{key, value}
				return err
			}
		case "protocol":
			cfg.Protocol, parsingErr = parseString(value)
			if parsingErr != nil {
				err.MessageArgs = []interface{}{key, value}
				return err
			}
		case "role":
			cfg.Role, parsingErr = parseString(value)
			if parsingErr != nil {
				err.MessageArgs = []interface{}{key, value}
				return err
			}
		case "namespace":
			cfg.Namespace, parsingErr = parseString(value)
			if parsingErr != nil {
				err.MessageArgs = []interface{}{key, value}
				return err
			}
		case "port":
			if cfg.Port, parsingErr = parseInt(value); parsingErr != nil {
				err.MessageArgs = []interface{}{key, value}
				return err
			}
		case "insecure", "insecuremode":
			if cfg.InsecureMode, parsingErr = parseBool(value); parsingErr != nil {
				err.MessageArgs = []interface{}{key, value}
				return err
			}
		case "connecttimeout", "connect_timeout":
			if cfg.ConnectTimeout, parsingErr = parseDuration(value); parsingErr != nil {
				err.MessageArgs = []interface{}{key, value}
				return err
			}
		case "requesttimeout", "request_timeout":
			if cfg.RequestTimeout, parsingErr = parseDuration(value); parsingErr != nil {
				err.MessageArgs = []interface{}{key, value}
				return err
			}
		case "maxretrycount", "max_retry_count":
			if cfg.MaxRetryCount, parsingErr = parseInt(value); parsingErr != nil {
				err.MessageArgs = []interface{}{key, value}
				return err
			}
		default:
			logger.Debugf("unknown connections.toml key: %v", key)
		}
	}
	return nil
}

func parseInt(i interface{}) (int, error) {
	if v, ok := i.(string); ok {
		return strconv.Atoi(v)
	}
	if v, ok := i.(int64); ok {
		return int(v), nil
	}
	if v, ok := i.(int); ok {
		return v, nil
	}
	return 0, errors.New("failed to parse the value to integer")
}

func parseBool(i interface{}) (bool, error) {
	if v, ok := i.(string); ok {
		vv, err := strconv.ParseBool(v)
		if err != nil {
			return false, errors.New("failed to parse the value to boolean")
		}
		return vv, nil
	}
	if v, ok := i.(bool); ok {
		return v, nil
	}
	return false, errors.New("failed to parse the value to boolean")
}

// parseDuration reads a timeout given in seconds.
func parseDuration(i interface{}) (time.Duration, error) {
	if v, ok := i.(string); ok {
		t, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, err
		}
		return time.Duration(t * int64(time.Second)), nil
	}
	num, err := parseInt(i)
	if err != nil {
		return 0, err
	}
	return time.Duration(int64(num) * int64(time.Second)), nil
}

func parseString(i interface{}) (string, error) {
	v, ok := i.(string)
	if !ok {
		return "", errors.New("failed to convert the value to string")
	}
	return v, nil
}

func getTomlFilePath(filePath string) (string, error) {
	if len(filePath) != 0 {
		if path.IsAbs(filePath) {
			return filePath, nil
		}
	} else {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		filePath = path.Join(homeDir, ".scidb")
	}
	absDir, err := path.Abs(filePath)
	if err != nil {
		return "", err
	}
	return absDir, nil
}

func getConnectionProfile(profile string) string {
	if len(profile) != 0 {
		return profile
	}
	return "default"
}

// validateFilePermission rejects files readable by group or others. The
// connections.toml file holds credentials in the clear.
func validateFilePermission(filePath string) error {
	if isWindows {
		return nil
	}
	fileInfo, err := os.Stat(filePath)
	if err != nil {
		return err
	}
	if permission := fileInfo.Mode().Perm(); permission != os.FileMode(0600) {
		return errors.New("your access to the file was denied")
	}
	return nil
}
