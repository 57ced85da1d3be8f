package services

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/AgusMolinaCode/Copytrade_Api.git/internal/models"
)

// cachedPrice es una entrada del caché de precios.
type cachedPrice struct {
	Price     float64
	Timestamp time.Time
}

// PriceOracleTTL es la vigencia del caché de precios. Amortiza llamadas
// repetidas a la API durante las valuaciones de portafolio.
const PriceOracleTTL = 60 * time.Second

// CryptoComparePriceOracle obtiene precios en USD desde CryptoCompare, con un
// caché en memoria de corta vigencia.
type CryptoComparePriceOracle struct {
	baseURL string
	client  *http.Client
	ttl     time.Duration
	mutex   sync.Mutex
	cache   map[string]cachedPrice
}

// NewPriceOracle crea el oráculo de precios con la configuración por defecto.
func NewPriceOracle() *CryptoComparePriceOracle {
	return &CryptoComparePriceOracle{
		baseURL: "https://min-api.cryptocompare.com",
		client:  &http.Client{Timeout: 10 * time.Second},
		ttl:     PriceOracleTTL,
		cache:   make(map[string]cachedPrice),
	}
}

// NewPriceOracleWithBaseURL permite apuntar el oráculo a otro servidor.
func NewPriceOracleWithBaseURL(baseURL string, ttl time.Duration) *CryptoComparePriceOracle {
	oracle := NewPriceOracle()
	oracle.baseURL = strings.TrimRight(baseURL, "/")
	oracle.ttl = ttl
	return oracle
}

// GetPrice obtiene el precio actual en USD de una criptomoneda.
// Devuelve models.ErrPriceNotFound si el ticker no existe y
// models.ErrPriceUnavailable si el servicio falla.
func (o *CryptoComparePriceOracle) GetPrice(ticker string) (float64, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return 0, fmt.Errorf("%w: ticker vacío", models.ErrPriceNotFound)
	}

	// Verificar si tenemos el precio en caché y si es reciente
	o.mutex.Lock()
	if cached, exists := o.cache[ticker]; exists && time.Since(cached.Timestamp) < o.ttl {
		o.mutex.Unlock()
		return cached.Price, nil
	}
	o.mutex.Unlock()

	apiKey := os.Getenv("CRYPTO_API_KEY")
	url := fmt.Sprintf("%s/data/pricemulti?fsyms=%s&tsyms=USD&api_key=%s", o.baseURL, ticker, apiKey)

	resp, err := o.client.Get(url)
	if err != nil {
		log.Printf("Error haciendo la petición HTTP para %s: %v", ticker, err)
		return 0, fmt.Errorf("%w: %v", models.ErrPriceUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Printf("Error leyendo el cuerpo de la respuesta para %s: %v", ticker, err)
		return 0, fmt.Errorf("%w: %v", models.ErrPriceUnavailable, err)
	}

	var result map[string]map[string]float64
	if err := json.Unmarshal(body, &result); err != nil {
		log.Printf("Error decodificando JSON para %s: %v", ticker, err)
		return 0, fmt.Errorf("%w: %v", models.ErrPriceUnavailable, err)
	}

	data, exists := result[ticker]
	if !exists {
		return 0, fmt.Errorf("%w: %s", models.ErrPriceNotFound, ticker)
	}

	price, exists := data["USD"]
	if !exists || price <= 0 {
		return 0, fmt.Errorf("%w: %s", models.ErrPriceNotFound, ticker)
	}

	// Guardar en caché
	o.mutex.Lock()
	o.cache[ticker] = cachedPrice{Price: price, Timestamp: time.Now()}
	o.mutex.Unlock()

	return price, nil
}
