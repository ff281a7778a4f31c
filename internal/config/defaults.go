package config

const (
	defaultConfigPath            = "~/.config/packline/config.toml"
	defaultDataDir               = "~/.local/share/packline"
	defaultLogDir                = "~/.local/share/packline/logs"
	defaultSpoolDir              = "~/.local/share/packline/spool"
	defaultStationName           = "linea-1"
	defaultCompanyName           = "CENTRAL COMERCIALIZADORA DE CARNES SA DE CV"
	defaultCalibrationOffset     = "-0.02"
	defaultMinPiece              = "0.01"
	defaultMinClose              = "0.10"
	defaultMaxClose              = "100.00"
	defaultCloseTolerance        = "0.05"
	defaultTraceabilityPrefix    = "08"
	defaultTraceabilityPadWidth  = 8
	defaultIntroPrefix           = "080000"
	defaultIntroDigits           = 4
	defaultPrinterAddress        = "127.0.0.1:9100"
	defaultPrinterTimeoutSeconds = 5
	defaultScaleDevice           = "/dev/ttyUSB0"
	defaultScaleBaudRate         = 9600
	defaultScaleReconnectSeconds = 3
	defaultNotifyRequestTimeout  = 10
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"

	databaseFileName = "produccion.db"
	lockFileName     = "packline.lock"
	logFileName      = "packline.log"
)

// Printer driver names accepted by printer.driver.
const (
	PrinterDriverTCP    = "tcp"
	PrinterDriverDevice = "device"
	PrinterDriverPDF    = "pdf"
)

// Default returns a Config populated with station defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:  defaultDataDir,
			LogDir:   defaultLogDir,
			SpoolDir: defaultSpoolDir,
		},
		Station: Station{
			Name:        defaultStationName,
			CompanyName: defaultCompanyName,
		},
		Weight: Weight{
			CalibrationOffset: defaultCalibrationOffset,
			MinPiece:          defaultMinPiece,
			MinClose:          defaultMinClose,
			MaxClose:          defaultMaxClose,
			CloseTolerance:    defaultCloseTolerance,
			ApplyCorrection:   true,
		},
		Traceability: Traceability{
			Prefix:      defaultTraceabilityPrefix,
			PadWidth:    defaultTraceabilityPadWidth,
			IntroPrefix: defaultIntroPrefix,
			IntroDigits: defaultIntroDigits,
		},
		Printer: Printer{
			Driver:         PrinterDriverTCP,
			Address:        defaultPrinterAddress,
			TimeoutSeconds: defaultPrinterTimeoutSeconds,
		},
		Scale: Scale{
			Enabled:          true,
			Device:           defaultScaleDevice,
			BaudRate:         defaultScaleBaudRate,
			ReconnectSeconds: defaultScaleReconnectSeconds,
			Hotplug:          true,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			PrintFailures:  true,
			Discrepancies:  true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
