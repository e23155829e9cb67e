package config

import "strings"

// doraText 是西班牙语长段落，用于观察较长输入的合成耗时。
const doraText = "Hola, mi nombre es Dora. Esta es una prueba de voz en español. " +
	"Voy a leer un texto largo para comprobar la capacidad del sistema de síntesis de voz Kokoro. " +
	"La inteligencia artificial ha avanzado mucho en los últimos años. " +
	"Ahora, los sistemas de texto a voz pueden generar discursos completos o ayudar a personas con discapacidades visuales. " +
	"Gracias por probar Kokoro."

// DefaultScenarios 返回内置基准场景。
// too_long 故意不切分且超出 Kokoro 的上下文长度，用来验证单个请求失败不会中断整个运行。
func DefaultScenarios() []ScenarioConfig {
	return []ScenarioConfig{
		{Name: "hola_mundo", Text: "Hola mundo", Voice: "es_dora", Device: "auto"},
		{Name: "dora_long", Text: doraText, Voice: "es_dora", Device: "auto", ChunkMaxLength: 150},
		{Name: "hello_world", Text: "Hello world, this is a short English test.", Voice: "en_default", Device: "auto"},
		{Name: "too_long", Text: strings.Repeat(doraText+" ", 3), Voice: "es_dora", Device: "auto"},
	}
}
