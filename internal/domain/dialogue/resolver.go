package dialogue

import (
	"strconv"
	"strings"
)

type DecisionKind int

const (
	// DecisionFresh: el texto nombra algo propio; va al NLU como pedido
	// nuevo, ignorando cualquier pendiente viejo.
	DecisionFresh DecisionKind = iota
	// DecisionConfirmPending: confirmación suelta con acción pendiente.
	DecisionConfirmPending
	// DecisionRejectPending: negación suelta con acción pendiente.
	DecisionRejectPending
	// DecisionMenuChoice: dígito suelto eligiendo del menú pendiente.
	DecisionMenuChoice
	// DecisionCompleteQuoted: "feito" respondiendo a un mensaje citado.
	DecisionCompleteQuoted
	// DecisionClarify: "feito" sin target por ningún lado; hay que preguntar.
	DecisionClarify
)

type Decision struct {
	Kind   DecisionKind
	Choice int // 1..N para DecisionMenuChoice
}

// Resolve aplica las reglas de prioridad del estado conversacional.
// Primera que matchea, gana:
//  1. texto con contenido propio => pedido nuevo (el pendiente viejo NO
//     secuestra el mensaje);
//  2. pendiente + confirmación/dígito => confirmar el pendiente;
//  3. citado + reconocimiento de conclusión => concluir el citado;
//  4. reconocimiento de conclusión sin contexto => aclarar;
//  5. el resto => NLU.
func Resolve(text string, c Context) Decision {
	norm := normalize(text)

	bareConfirm := isConfirmToken(norm)
	bareReject := isRejectToken(norm)
	completion := isCompletionToken(norm)
	digit, isDigit := menuDigit(norm)

	// regla 1: cualquier texto con contenido propio es un pedido nuevo
	if !bareConfirm && !bareReject && !isDigit {
		return Decision{Kind: DecisionFresh}
	}

	// regla 2: confirmación suelta con pendiente
	if c.Pending != nil {
		if bareReject {
			return Decision{Kind: DecisionRejectPending}
		}
		if isDigit && len(c.Pending.Options) > 0 {
			return Decision{Kind: DecisionMenuChoice, Choice: digit}
		}
		if bareConfirm {
			return Decision{Kind: DecisionConfirmPending}
		}
	}

	// regla 3: citado + conclusión
	if c.Quoted != nil && completion {
		return Decision{Kind: DecisionCompleteQuoted}
	}

	// regla 4: conclusión suelta sin contexto
	if completion {
		return Decision{Kind: DecisionClarify}
	}

	// regla 5
	return Decision{Kind: DecisionFresh}
}

func normalize(text string) string {
	t := strings.ToLower(strings.TrimSpace(text))
	return strings.Trim(t, ".!?… ")
}

var confirmTokens = map[string]bool{
	"sim": true, "s": true, "ok": true, "okay": true, "okk": true,
	"pode": true, "pode sim": true, "pode ser": true,
	"confirmo": true, "confirma": true, "confirmar": true,
	"isso": true, "isso mesmo": true, "exato": true,
	"claro": true, "beleza": true, "blz": true, "certo": true,
	"feito": true, "pronto": true, "fiz": true, "ja fiz": true, "já fiz": true,
	"concluido": true, "concluído": true, "done": true, "yes": true,
}

// completionTokens ⊂ confirmTokens: los que además significan "ya lo hice".
var completionTokens = map[string]bool{
	"feito": true, "pronto": true, "fiz": true, "ja fiz": true, "já fiz": true,
	"concluido": true, "concluído": true, "done": true, "ok": true,
}

var rejectTokens = map[string]bool{
	"não": true, "nao": true, "n": true, "cancela": true, "deixa": true,
	"esquece": true, "melhor não": true, "melhor nao": true,
}

func isConfirmToken(norm string) bool    { return confirmTokens[norm] }
func isCompletionToken(norm string) bool { return completionTokens[norm] }
func isRejectToken(norm string) bool     { return rejectTokens[norm] }

// menuDigit reconoce un dígito suelto usado como elección 1..9.
func menuDigit(norm string) (int, bool) {
	if len(norm) != 1 {
		return 0, false
	}
	n, err := strconv.Atoi(norm)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}
