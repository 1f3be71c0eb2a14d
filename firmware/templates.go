package firmware

import (
	"fmt"
	"strings"

	"matrixforge/hardware/board"
)

// boardTemplate carries the per-board source fragments. Serial boards stream
// frames over USB; wireless boards run a soft-AP with a /frame endpoint.
type boardTemplate struct {
	includes   []string
	extraDecls string
	setupBody  string
	loopBody   string
	helpers    string
}

func templateFor(p board.Profile) boardTemplate {
	if p.SupportsWireless {
		return wirelessTemplate(p)
	}
	return serialTemplate(p)
}

func serialTemplate(p board.Profile) boardTemplate {
	t := boardTemplate{
		includes: []string{"<FastLED.h>"},
		setupBody: fmt.Sprintf(`  FastLED.addLeds<WS2812B, DATA_PIN, GRB>(leds, NUM_LEDS);
  FastLED.setBrightness(BRIGHTNESS);
  Serial.begin(%d);

  // Clear all LEDs on startup
  FastLED.clear();
  FastLED.show();`, p.BaudRate),
		loopBody: `  if (Serial.available() >= NUM_LEDS * 3) {
    for (uint16_t i = 0; i < NUM_LEDS; i++) {
      leds[i] = CRGB(Serial.read(), Serial.read(), Serial.read());
    }
    FastLED.show();
  }`,
	}
	if p.ID == "mega" {
		t.helpers = `// Helper for large matrices
void clearMatrix() {
  FastLED.clear();
  FastLED.show();
}`
	}
	return t
}

func wirelessTemplate(p board.Profile) boardTemplate {
	wifiInclude := "<WiFi.h>"
	if p.ID == "esp8266" {
		wifiInclude = "<ESP8266WiFi.h>"
	}
	return boardTemplate{
		includes: []string{wifiInclude, "<ESPAsyncWebServer.h>", "<FastLED.h>"},
		extraDecls: `// WiFi Configuration
const char *ssid = "PC-Matrix";
const char *pass = "12345678";
AsyncWebServer server(80);`,
		setupBody: `  FastLED.addLeds<WS2812B, DATA_PIN, GRB>(leds, NUM_LEDS);
  FastLED.setBrightness(BRIGHTNESS);
  WiFi.softAP(ssid, pass);

  // Clear all LEDs on startup
  FastLED.clear();
  FastLED.show();

  server.on("/frame", HTTP_POST,
    [](AsyncWebServerRequest *r){},
    NULL,
    [](AsyncWebServerRequest *r, uint8_t *data, size_t len, size_t, size_t){
      memcpy(leds, data, min(len, sizeof(leds)));
      FastLED.show();
      r->send(200, "text/plain", "OK");
    });
  server.begin();`,
		loopBody: fmt.Sprintf(`  // %s handles frames via web server callbacks
  delay(10);`, strings.ToUpper(p.ID)),
	}
}
