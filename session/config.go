package session

import (
	"github.com/spf13/viper"
	"github.com/vidra-player/vidra/engine"
	"github.com/vidra-player/vidra/key"
)

// ConfiguredFactory starts mpv with the configured binary, volume and hardware decoding.
func ConfiguredFactory() Factory {
	return func() (engine.Engine, error) {
		mpv := engine.New(engine.Options{
			Binary: viper.GetString(key.PlayerBinary),
			Volume: viper.GetInt(key.PlayerVolume),
			Hwdec:  viper.GetString(key.PlayerHwdec),
			Source: "mpv",
		})
		if err := mpv.Start(); err != nil {
			return nil, err
		}
		return mpv, nil
	}
}

// ConfiguredPolicy reads the resume thresholds from the configuration.
func ConfiguredPolicy() Policy {
	return Policy{
		Threshold: viper.GetFloat64(key.PlayerResumeThreshold),
		NearEnd:   viper.GetFloat64(key.PlayerNearEndThreshold),
		Ask:       viper.GetBool(key.PlayerAskResume),
	}
}
