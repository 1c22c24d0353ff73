// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package plugin

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/pflag"
)

type PluginType int

const (
	PluginTypeBlob PluginType = iota + 1
	PluginTypeMetadata
)

// EnvVarPrefix is prepended to plugin option environment variables
const EnvVarPrefix = "STAKEDAO_DATABASE"

func PluginTypeName(pluginType PluginType) string {
	switch pluginType {
	case PluginTypeBlob:
		return "blob"
	case PluginTypeMetadata:
		return "metadata"
	default:
		return "unknown"
	}
}

// PluginTypeFromString returns the plugin type for a name as used in config files
func PluginTypeFromString(name string) (PluginType, bool) {
	switch name {
	case "blob":
		return PluginTypeBlob, true
	case "metadata":
		return PluginTypeMetadata, true
	default:
		return 0, false
	}
}

type PluginOptionType int

const (
	PluginOptionTypeString PluginOptionType = iota + 1
	PluginOptionTypeBool
	PluginOptionTypeInt
	PluginOptionTypeUint
)

type PluginOption struct {
	Name         string
	Type         PluginOptionType
	Description  string
	DefaultValue any
	// CustomEnvVar is checked in addition to the generated variable name
	// and takes precedence over it
	CustomEnvVar string
	Dest         any
}

type PluginEntry struct {
	Type               PluginType
	Name               string
	Description        string
	NewFromOptionsFunc func() Plugin
	Options            []PluginOption
}

var (
	pluginEntries      []PluginEntry
	pluginEntriesMutex sync.RWMutex
)

// Register adds a plugin to the registry. It is normally called from the
// init function of the plugin package
func Register(pluginEntry PluginEntry) {
	pluginEntriesMutex.Lock()
	defer pluginEntriesMutex.Unlock()
	pluginEntries = append(pluginEntries, pluginEntry)
}

// GetPlugins returns the registered plugins of the given type
func GetPlugins(pluginType PluginType) []PluginEntry {
	pluginEntriesMutex.RLock()
	defer pluginEntriesMutex.RUnlock()
	var ret []PluginEntry
	for _, p := range pluginEntries {
		if p.Type == pluginType {
			ret = append(ret, p)
		}
	}
	return ret
}

// GetPlugin returns a new instance of the named plugin, or nil if no such
// plugin is registered
func GetPlugin(pluginType PluginType, pluginName string) Plugin {
	pluginEntriesMutex.RLock()
	var newFunc func() Plugin
	for _, p := range pluginEntries {
		if p.Type == pluginType && p.Name == pluginName {
			newFunc = p.NewFromOptionsFunc
			break
		}
	}
	pluginEntriesMutex.RUnlock()
	if newFunc == nil {
		return nil
	}
	return newFunc()
}

func flagName(p PluginEntry, opt PluginOption) string {
	return fmt.Sprintf(
		"%s-%s-%s",
		PluginTypeName(p.Type),
		p.Name,
		opt.Name,
	)
}

func envVarName(p PluginEntry, opt PluginOption) string {
	ret := strings.Join(
		[]string{
			EnvVarPrefix,
			PluginTypeName(p.Type),
			p.Name,
			opt.Name,
		},
		"_",
	)
	ret = strings.ReplaceAll(ret, "-", "_")
	return strings.ToUpper(ret)
}

// PopulateCmdlineOptions adds a flag for every plugin option to the flag set
func PopulateCmdlineOptions(fs *pflag.FlagSet) error {
	pluginEntriesMutex.RLock()
	defer pluginEntriesMutex.RUnlock()
	for _, p := range pluginEntries {
		for _, opt := range p.Options {
			name := flagName(p, opt)
			desc := fmt.Sprintf(
				"%s (%s plugin %s)",
				opt.Description,
				PluginTypeName(p.Type),
				p.Name,
			)
			switch opt.Type {
			case PluginOptionTypeString:
				dest, ok := opt.Dest.(*string)
				if !ok {
					return fmt.Errorf("option %s: destination is not *string", name)
				}
				def, _ := opt.DefaultValue.(string)
				fs.StringVar(dest, name, def, desc)
			case PluginOptionTypeBool:
				dest, ok := opt.Dest.(*bool)
				if !ok {
					return fmt.Errorf("option %s: destination is not *bool", name)
				}
				def, _ := opt.DefaultValue.(bool)
				fs.BoolVar(dest, name, def, desc)
			case PluginOptionTypeInt:
				dest, ok := opt.Dest.(*int)
				if !ok {
					return fmt.Errorf("option %s: destination is not *int", name)
				}
				def, _ := opt.DefaultValue.(int)
				fs.IntVar(dest, name, def, desc)
			case PluginOptionTypeUint:
				dest, ok := opt.Dest.(*uint64)
				if !ok {
					return fmt.Errorf("option %s: destination is not *uint64", name)
				}
				def, _ := opt.DefaultValue.(uint64)
				fs.Uint64Var(dest, name, def, desc)
			default:
				return fmt.Errorf("option %s: unknown option type %d", name, opt.Type)
			}
		}
	}
	return nil
}

// ProcessEnvVars applies plugin options from environment variables named
// STAKEDAO_DATABASE_<TYPE>_<PLUGIN>_<OPTION>
func ProcessEnvVars() error {
	pluginEntriesMutex.RLock()
	defer pluginEntriesMutex.RUnlock()
	for _, p := range pluginEntries {
		for _, opt := range p.Options {
			name := envVarName(p, opt)
			val, ok := os.LookupEnv(name)
			if opt.CustomEnvVar != "" {
				if customVal, customOk := os.LookupEnv(opt.CustomEnvVar); customOk {
					name = opt.CustomEnvVar
					val, ok = customVal, true
				}
			}
			if !ok {
				continue
			}
			var value any
			switch opt.Type {
			case PluginOptionTypeString:
				value = val
			case PluginOptionTypeBool:
				tmp, err := strconv.ParseBool(val)
				if err != nil {
					return fmt.Errorf("invalid value for %s: %w", name, err)
				}
				value = tmp
			case PluginOptionTypeInt:
				tmp, err := strconv.Atoi(val)
				if err != nil {
					return fmt.Errorf("invalid value for %s: %w", name, err)
				}
				value = tmp
			case PluginOptionTypeUint:
				tmp, err := strconv.ParseUint(val, 10, 64)
				if err != nil {
					return fmt.Errorf("invalid value for %s: %w", name, err)
				}
				value = tmp
			}
			if err := opt.assign(value); err != nil {
				return fmt.Errorf("environment variable %s: %w", name, err)
			}
		}
	}
	return nil
}

// ProcessConfig applies plugin options from a config file. The map is keyed
// by plugin type name, then plugin name, then option name
func ProcessConfig(pluginConfig map[string]map[string]map[string]any) error {
	pluginEntriesMutex.RLock()
	defer pluginEntriesMutex.RUnlock()
	for typeName, typeConfig := range pluginConfig {
		pluginType, ok := PluginTypeFromString(typeName)
		if !ok {
			return fmt.Errorf("unknown plugin type: %s", typeName)
		}
		for pluginName, options := range typeConfig {
			var entry *PluginEntry
			for i := range pluginEntries {
				if pluginEntries[i].Type == pluginType &&
					pluginEntries[i].Name == pluginName {
					entry = &pluginEntries[i]
					break
				}
			}
			if entry == nil {
				return fmt.Errorf(
					"unknown %s plugin: %s",
					typeName,
					pluginName,
				)
			}
			for optName, optValue := range options {
				found := false
				for _, opt := range entry.Options {
					if opt.Name != optName {
						continue
					}
					found = true
					// YAML decodes whole numbers as int
					if opt.Type == PluginOptionTypeUint {
						if v, ok := optValue.(uint); ok {
							optValue = uint64(v)
						}
					}
					if err := opt.assign(optValue); err != nil {
						return fmt.Errorf(
							"%s plugin %s: %w",
							typeName,
							pluginName,
							err,
						)
					}
				}
				if !found {
					return fmt.Errorf(
						"%s plugin %s: unknown option %s",
						typeName,
						pluginName,
						optName,
					)
				}
			}
		}
	}
	return nil
}
