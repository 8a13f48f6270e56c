package config

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	BaseURL     string `env:"BASE_URL"`
	DatabaseURL string `env:"DATABASE_URL" envDefault:"replate.db"`

	Valor    Valor    `envPrefix:"VALOR_"`
	OrderAPI OrderAPI `envPrefix:"ORDER_API_"`
	Checkout Checkout `envPrefix:"CHECKOUT_"`
}

type Valor struct {
	BaseApiURL string `env:"BASE_API_URL"`
	AppID      string `env:"APP_ID"`
	AppKey     string `env:"APP_KEY"`
	EPI        string `env:"EPI"`
}

type OrderAPI struct {
	BaseURL string `env:"BASE_URL"`
	// used when a request carries no customer token
	GuestToken string `env:"GUEST_TOKEN"`
}

// Checkout carries the storefront defaults that used to be hardcoded in the
// amount/tip computation. Overridable per deployment.
type Checkout struct {
	DeliveryCharge  string `env:"DELIVERY_CHARGE" envDefault:"0"`
	DeliveryKM      string `env:"DELIVERY_KM" envDefault:"1"`
	FallbackLat     string `env:"FALLBACK_LAT" envDefault:"41.8781"`
	FallbackLng     string `env:"FALLBACK_LNG" envDefault:"-87.6298"`
	ConfirmWaitSecs int    `env:"CONFIRM_WAIT_SECS" envDefault:"180"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"8080"`
}
