// Package nereval evaluates and runs named entity recognition taggers.
//
// Tag sequences are decoded into entity spans by package span, and scored
// against gold annotations by package score with micro-averaged precision,
// recall and F1 overall and per entity type. This package adds a Tagger that
// runs a token classification ONNX model over raw text.
//
// # Quick Start
//
//	labels, err := label.NewMap([]string{"O", "B-PER", "I-PER", "S-PER"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	tagger, err := nereval.New("model.onnx", "tokenizer.json", labels)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tagger.Close()
//
//	entities, err := tagger.Tag(ctx, "John Smith lives in Paris.")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, e := range entities {
//	    fmt.Printf("%s %q\n", e.Type, e.Text)
//	}
//
// # Thread Safety
//
// Tagger is safe for concurrent use. It manages an internal pool of ONNX
// sessions, configurable via WithPoolSize.
//
// # Model Files
//
// Any HuggingFace token classification model exported to ONNX works
// together with its tokenizer.json. The label list must be in the model's
// output order, as in the id2label table of its config.json.
package nereval
